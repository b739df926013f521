package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iyhunko/product-manager/internal/app"
	"github.com/iyhunko/product-manager/internal/ui"
)

const shellHelp = `Commands:
  list                 show all products
  search <text>        show products whose name contains text (empty text shows all)
  add                  create a product
  edit <id>            change the name and description of a product
  delete <id>          delete a product after confirmation
  dismiss <toast-id>   remove a notification
  help                 show this help
  quit                 leave the shell`

func (r *root) newShellCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Manage products interactively",
		Long:  "Start an interactive session that keeps the product list, open dialogs and notifications between commands.\n\n" + shellHelp,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			api, err := r.api(cmd)
			if err != nil {
				return err
			}
			s := &shell{
				cmd: cmd,
				app: app.New(api),
				in:  bufio.NewScanner(cmd.InOrStdin()),
				out: cmd.OutOrStdout(),
			}
			return s.run()
		},
	}
	return r.register(cmd, nil)
}

// shell reads one command per line. Failed API calls only queue notifications.
type shell struct {
	cmd *cobra.Command
	app *app.App
	in  *bufio.Scanner
	out io.Writer
}

func (s *shell) run() error {
	_ = s.app.Mount(s.cmd.Context())
	if err := s.render(); err != nil {
		return err
	}

	for {
		line, ok := s.prompt("> ")
		if !ok {
			return s.in.Err()
		}

		verb, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
		arg = strings.TrimSpace(arg)

		switch verb {
		case "":
			continue
		case "quit", "exit":
			return nil
		case "help":
			fmt.Fprintln(s.out, shellHelp)
			continue
		case "list":
			_ = s.app.Search(s.cmd.Context(), "")
		case "search":
			_ = s.app.Search(s.cmd.Context(), arg)
		case "add":
			s.app.OpenCreate()
			if err := s.fillForm(app.Form{}); err != nil {
				return err
			}
		case "edit":
			if !s.withProduct(arg, s.app.OpenEdit) {
				continue
			}
			editing := s.app.Store().Editing
			if err := s.fillForm(app.Form{Name: editing.Name, Description: editing.Description}); err != nil {
				return err
			}
		case "delete":
			if !s.withProduct(arg, s.app.RequestDelete) {
				continue
			}
			if err := s.confirmDelete(); err != nil {
				return err
			}
		case "dismiss":
			if !s.app.DismissToast(arg) {
				fmt.Fprintf(s.out, "No notification %q\n", arg)
				continue
			}
		default:
			fmt.Fprintf(s.out, "Unknown command %q. Type help for the list of commands.\n", verb)
			continue
		}

		if err := s.render(); err != nil {
			return err
		}
	}
}

func (s *shell) render() error {
	return ui.Render(s.out, s.app.Store())
}

// prompt prints label and reads one line. ok is false at end of input.
func (s *shell) prompt(label string) (string, bool) {
	fmt.Fprint(s.out, label)
	if !s.in.Scan() {
		return "", false
	}
	return s.in.Text(), true
}

// withProduct runs open for the product id in arg and reports a bad or unknown id.
func (s *shell) withProduct(arg string, open func(int64) error) bool {
	id, err := parseID(arg)
	if err == nil {
		err = open(id)
	}
	if err != nil {
		fmt.Fprintln(s.out, err)
		return false
	}
	return true
}

// fillForm asks for the fields of the open form and submits them until the product is saved
// or the user gives up. An empty answer keeps the current value.
func (s *shell) fillForm(form app.Form) error {
	for {
		if err := ui.RenderForm(s.out, s.app.Store(), form, nil); err != nil {
			return err
		}

		name, ok := s.prompt("Product Name: ")
		if !ok {
			s.app.CancelModal()
			return nil
		}
		if name != "" {
			form.Name = name
		}
		description, ok := s.prompt("Description: ")
		if !ok {
			s.app.CancelModal()
			return nil
		}
		if description != "" {
			form.Description = description
		}

		formErrs, err := s.app.SubmitForm(s.cmd.Context(), form)
		if err == nil {
			return nil
		}
		if errors.Is(err, app.ErrInvalidForm) {
			err = ui.RenderForm(s.out, s.app.Store(), form, formErrs)
		} else {
			err = s.render()
		}
		if err != nil {
			return err
		}

		answer, _ := s.prompt("Try again? [y/N] ")
		if !confirmed(answer) {
			s.app.CancelModal()
			return nil
		}
	}
}

func (s *shell) confirmDelete() error {
	if err := s.render(); err != nil {
		return err
	}
	answer, _ := s.prompt("Delete? [y/N] ")
	if !confirmed(answer) {
		s.app.CancelModal()
		return nil
	}
	if err := s.app.ConfirmDelete(s.cmd.Context()); err != nil {
		// the failure is already queued as a notification
		s.app.CancelModal()
	}
	return nil
}
