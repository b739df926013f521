package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	"github.com/iyhunko/product-manager/internal/app"
	"github.com/iyhunko/product-manager/internal/client"
	"github.com/iyhunko/product-manager/internal/ui"
)

func (r *root) newListCommand() *cobra.Command {
	flags := map[string]cobraflags.Flag{
		searchFlag: &cobraflags.StringFlag{
			Name:  searchFlag,
			Value: "",
			Usage: "Only list products whose name contains this text, ignoring case",
		},
	}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List products, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			api, err := r.api(cmd)
			if err != nil {
				return err
			}
			a := app.New(api)

			if query := flags[searchFlag].GetString(); query != "" {
				err = a.Search(cmd.Context(), query)
			} else {
				err = a.Mount(cmd.Context())
			}
			if err != nil {
				return reportFailure(cmd.ErrOrStderr(), a, err)
			}
			return ui.Render(cmd.OutOrStdout(), a.Store())
		},
	}
	return r.register(cmd, flags)
}

func (r *root) newGetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			api, err := r.api(cmd)
			if err != nil {
				return err
			}

			product, err := api.GetProduct(cmd.Context(), id)
			if err != nil {
				toast := app.Toast{Message: client.ErrorMessage(err, "Failed to load product"), Type: app.ToastError}
				if rerr := ui.RenderToast(cmd.ErrOrStderr(), toast); rerr != nil {
					return rerr
				}
				return fmt.Errorf("failed to get product %d: %w", id, err)
			}
			return ui.RenderCard(cmd.OutOrStdout(), *product)
		},
	}
	return r.register(cmd, nil)
}

func formFlags() map[string]cobraflags.Flag {
	return map[string]cobraflags.Flag{
		nameFlag: &cobraflags.StringFlag{
			Name:  nameFlag,
			Value: "",
			Usage: "Product name, at least 2 characters",
		},
		descriptionFlag: &cobraflags.StringFlag{
			Name:  descriptionFlag,
			Value: "",
			Usage: "Product description",
		},
	}
}

func (r *root) newCreateCommand() *cobra.Command {
	flags := formFlags()

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a product",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			api, err := r.api(cmd)
			if err != nil {
				return err
			}
			a := app.New(api)
			a.OpenCreate()

			form := app.Form{
				Name:        flags[nameFlag].GetString(),
				Description: flags[descriptionFlag].GetString(),
			}
			return submit(cmd, a, form, 0)
		},
	}
	return r.register(cmd, flags)
}

func (r *root) newUpdateCommand() *cobra.Command {
	flags := formFlags()

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update the name and description of a product",
		Long:  "Update the name and description of a product. A flag that is not given keeps the current value.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			api, err := r.api(cmd)
			if err != nil {
				return err
			}
			a := app.New(api)
			if err := a.Mount(cmd.Context()); err != nil {
				return reportFailure(cmd.ErrOrStderr(), a, err)
			}
			if err := a.OpenEdit(id); err != nil {
				return err
			}

			editing := a.Store().Editing
			form := app.Form{Name: editing.Name, Description: editing.Description}
			if cmd.Flags().Changed(nameFlag) {
				form.Name = flags[nameFlag].GetString()
			}
			if cmd.Flags().Changed(descriptionFlag) {
				form.Description = flags[descriptionFlag].GetString()
			}
			return submit(cmd, a, form, id)
		},
	}
	return r.register(cmd, flags)
}

// submit sends the open form and prints either the saved product or what went wrong.
// id is the product being edited, or 0 for a new one.
func submit(cmd *cobra.Command, a *app.App, form app.Form, id int64) error {
	formErrs, err := a.SubmitForm(cmd.Context(), form)
	switch {
	case errors.Is(err, app.ErrInvalidForm):
		if rerr := ui.RenderForm(cmd.ErrOrStderr(), a.Store(), form, formErrs); rerr != nil {
			return rerr
		}
		return err
	case err != nil:
		return reportFailure(cmd.ErrOrStderr(), a, err)
	}

	saved := &a.Store().Products[0]
	if id != 0 {
		saved, _ = a.Store().Find(id)
	}
	if err := ui.RenderCard(cmd.OutOrStdout(), *saved); err != nil {
		return err
	}
	return reportFailure(cmd.OutOrStdout(), a, nil)
}

func (r *root) newDeleteCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			api, err := r.api(cmd)
			if err != nil {
				return err
			}
			a := app.New(api)
			if err := a.Mount(cmd.Context()); err != nil {
				return reportFailure(cmd.ErrOrStderr(), a, err)
			}
			if err := a.RequestDelete(id); err != nil {
				return err
			}

			if !yes {
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Are you sure you want to delete %q? This action cannot be undone. [y/N] ", a.Store().Deleting.Name)
				answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if !confirmed(answer) {
					a.CancelModal()
					fmt.Fprintln(out, "Cancelled")
					return nil
				}
			}

			if err := a.ConfirmDelete(cmd.Context()); err != nil {
				return reportFailure(cmd.ErrOrStderr(), a, err)
			}
			return reportFailure(cmd.OutOrStdout(), a, nil)
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Delete without asking for confirmation")
	return r.register(cmd, nil)
}

func confirmed(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}
