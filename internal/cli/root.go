package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/iyhunko/product-manager/internal/app"
	"github.com/iyhunko/product-manager/internal/client"
	"github.com/iyhunko/product-manager/internal/logger"
	"github.com/iyhunko/product-manager/internal/ui"
)

// Environment variables read when the matching flag is not given.
const (
	APIURLEnv  = "PRODUCT_API_URL"
	TimeoutEnv = "PRODUCT_API_TIMEOUT"
)

const (
	apiURLFlag      = "api-url"
	timeoutFlag     = "timeout"
	debugFlag       = "debug"
	searchFlag      = "search"
	nameFlag        = "name"
	descriptionFlag = "description"
)

// API is everything the commands need from the product API.
type API interface {
	app.ProductAPI
	GetProduct(ctx context.Context, id int64) (*client.Product, error)
}

type root struct {
	env   *viper.Viper
	flags map[string]cobraflags.Flag
}

// NewRootCommand builds the product-manager command tree.
func NewRootCommand() *cobra.Command {
	env := viper.New()
	env.SetDefault(APIURLEnv, client.DefaultBaseURL)
	env.SetDefault(TimeoutEnv, client.DefaultTimeout.String())
	env.AutomaticEnv()

	r := &root{
		env: env,
		flags: map[string]cobraflags.Flag{
			apiURLFlag: &cobraflags.StringFlag{
				Name:       apiURLFlag,
				Value:      "",
				Usage:      "Product API base URL (env " + APIURLEnv + ", default " + client.DefaultBaseURL + ")",
				Persistent: true,
			},
			timeoutFlag: &cobraflags.StringFlag{
				Name:       timeoutFlag,
				Value:      "",
				Usage:      "Timeout of every API call, e.g. 5s (env " + TimeoutEnv + ", default " + client.DefaultTimeout.String() + ")",
				Persistent: true,
			},
			debugFlag: &cobraflags.BoolFlag{
				Name:       debugFlag,
				Value:      false,
				Usage:      "Log API calls to stderr at debug level",
				Persistent: true,
			},
		},
	}

	cmd := &cobra.Command{
		Use:           "product-manager",
		Short:         "Manage the product inventory",
		Long:          "List, search, create, update and delete products through the product API.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cobraflags.RegisterMap(cmd, r.flags)

	cmd.AddCommand(
		r.newListCommand(),
		r.newGetCommand(),
		r.newCreateCommand(),
		r.newUpdateCommand(),
		r.newDeleteCommand(),
		r.newShellCommand(),
	)
	return cmd
}

// register adds the command's own flags. Connection flags are persistent on the root.
func (r *root) register(cmd *cobra.Command, own map[string]cobraflags.Flag) *cobra.Command {
	if own != nil {
		cobraflags.RegisterMap(cmd, own)
	}
	return cmd
}

// Execute runs the command tree with the process arguments.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

// api builds the HTTP client from flags, falling back to the environment.
func (r *root) api(cmd *cobra.Command) (API, error) {
	baseURL := r.flags[apiURLFlag].GetString()
	if baseURL == "" {
		baseURL = r.env.GetString(APIURLEnv)
	}

	rawTimeout := r.flags[timeoutFlag].GetString()
	if rawTimeout == "" {
		rawTimeout = r.env.GetString(TimeoutEnv)
	}
	timeout, err := time.ParseDuration(rawTimeout)
	if err != nil || timeout <= 0 {
		return nil, fmt.Errorf("invalid timeout %q", rawTimeout)
	}

	return client.New(baseURL,
		client.WithTimeout(timeout),
		client.WithLogger(logger.NewJSONLogger(cmd.ErrOrStderr(), r.flags[debugFlag].(*cobraflags.BoolFlag).GetBool())),
	), nil
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid product ID %q", arg)
	}
	return id, nil
}

// reportFailure prints the queued notifications and returns err for a non-zero exit.
func reportFailure(w io.Writer, a *app.App, err error) error {
	for _, toast := range a.Store().Toasts.Items() {
		if rerr := ui.RenderToast(w, toast); rerr != nil {
			return rerr
		}
	}
	return err
}
