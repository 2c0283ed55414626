package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"scalesite/internal/cms"
	domainerr "scalesite/internal/domain/errors"
	"scalesite/internal/draft"
	"scalesite/internal/form"
)

var stepTitles = [form.StepCount]string{
	"Company Information",
	"Contact Details",
	"Collaboration Interest",
	"Additional Details",
}

var fieldLabels = map[string]string{
	"companyName":        "Company name",
	"industry":           "Industry",
	"companySize":        "Company size",
	"website":            "Website",
	"contactName":        "Contact name",
	"email":              "Email",
	"phone":              "Phone",
	"designation":        "Designation",
	"collaborationTypes": "Collaboration types (comma separated)",
	"projectDescription": "Project description",
	"timeline":           "Timeline",
	"budget":             "Budget",
	"additionalInfo":     "Additional information",
	"consent":            "I agree to be contacted (y/n)",
}

var fieldOptions = map[string][]string{
	"companySize":        form.CompanySizes,
	"collaborationTypes": form.CollaborationTypes,
	"timeline":           form.Timelines,
}

var errQuit = errors.New("quit")

func newCollabCmd(a *app) *cobra.Command {
	var discard bool
	cmd := &cobra.Command{
		Use:   "collab",
		Short: "Fill in the industry collaboration form",
		Long: "Walks through the four steps of the collaboration form. Answers are\n" +
			"saved as you go, so an interrupted session resumes where it left off.\n" +
			"Enter keeps the current value, \"<\" goes back a step, \"q\" quits.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := draft.Open(draft.OpenOptions{Path: a.cfg.Storage.DraftPath})
			if err != nil {
				return err
			}
			defer store.Close()
			if discard {
				if err := store.Delete(ctx); err != nil {
					return err
				}
			}

			m := form.New(store, cms.NewFromConfig(a.cfg.CMS, a.log), a.log)
			if err := m.Mount(ctx); err != nil {
				return err
			}
			w := &wizard{m: m, in: bufio.NewScanner(cmd.InOrStdin()), out: cmd.OutOrStdout()}
			if step := m.Reachable(); step > form.Step1 {
				fmt.Fprintf(w.out, "Resuming saved draft at step %d.\n", step)
				if err := m.JumpTo(step); err != nil {
					return err
				}
			}
			err = w.run(ctx)
			if errors.Is(err, errQuit) {
				fmt.Fprintln(w.out, "Draft saved.")
				return nil
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&discard, "discard", false, "discard any saved draft first")
	return cmd
}

type wizard struct {
	m   *form.Machine
	in  *bufio.Scanner
	out io.Writer
}

func (w *wizard) run(ctx context.Context) error {
	for {
		step := w.m.Step()
		fmt.Fprintf(w.out, "\nStep %d of %d: %s\n", step, form.StepCount, stepTitles[step-1])

		back, err := w.fillStep(ctx, step)
		if err != nil {
			return err
		}
		if back {
			w.m.Back()
			continue
		}

		if step < form.Step4 {
			if !w.m.Next() {
				w.printErrors(step)
			}
			continue
		}

		ok, err := w.confirm("Submit now?")
		if err != nil || !ok {
			return errQuitOr(err)
		}
		err = w.m.Submit(ctx)
		var ve domainerr.ValidationError
		switch {
		case err == nil:
			fmt.Fprintln(w.out, "Thank you. Your collaboration request has been submitted.")
			return nil
		case errors.As(err, &ve):
			w.printErrors(w.m.Step())
		default:
			fmt.Fprintf(w.out, "Submission failed: %v\nYour answers are kept; try again.\n", err)
		}
	}
}

// fillStep prompts for each field of step. It reports whether the user asked
// to go back.
func (w *wizard) fillStep(ctx context.Context, step form.Step) (bool, error) {
	for _, name := range form.StepFields(step) {
		for {
			cur, _ := w.m.State().Draft.Field(name)
			line, err := w.prompt(name, cur)
			if err != nil {
				return false, err
			}
			switch line {
			case "<":
				if step == form.Step1 {
					continue
				}
				return true, nil
			case "":
				if err := w.m.Set(ctx, name, cur); err != nil {
					return false, err
				}
			default:
				if err := w.set(ctx, name, line); err != nil {
					fmt.Fprintf(w.out, "  %v\n", err)
					continue
				}
			}
			if msg := w.m.State().Errors[name]; msg != "" {
				fmt.Fprintf(w.out, "  %s\n", msg)
			}
			break
		}
	}
	return false, nil
}

func (w *wizard) set(ctx context.Context, name, line string) error {
	if name != "consent" {
		return w.m.Set(ctx, name, line)
	}
	switch strings.ToLower(line) {
	case "y", "yes", "true":
		return w.m.Set(ctx, name, true)
	case "n", "no", "false":
		return w.m.Set(ctx, name, false)
	}
	return errors.New("answer y or n")
}

func (w *wizard) prompt(name string, cur any) (string, error) {
	label := fieldLabels[name]
	if opts := fieldOptions[name]; len(opts) > 0 {
		label += " [" + strings.Join(opts, ", ") + "]"
	}
	if s := display(cur); s != "" {
		label += " (" + s + ")"
	}
	fmt.Fprintf(w.out, "%s: ", label)
	return w.readLine()
}

func (w *wizard) confirm(q string) (bool, error) {
	fmt.Fprintf(w.out, "%s [y/N]: ", q)
	line, err := w.readLine()
	if err != nil {
		return false, err
	}
	return slices.Contains([]string{"y", "yes"}, strings.ToLower(line)), nil
}

func (w *wizard) readLine() (string, error) {
	if !w.in.Scan() {
		if err := w.in.Err(); err != nil {
			return "", err
		}
		return "", errQuit
	}
	line := strings.TrimSpace(w.in.Text())
	if line == "q" {
		return "", errQuit
	}
	return line, nil
}

func (w *wizard) printErrors(step form.Step) {
	st := w.m.State()
	for _, name := range form.StepFields(step) {
		if msg, ok := st.Errors[name]; ok {
			fmt.Fprintf(w.out, "  %s: %s\n", fieldLabels[name], msg)
		}
	}
}

func display(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case []string:
		return strings.Join(v, ", ")
	case bool:
		if v {
			return "yes"
		}
	}
	return ""
}

func errQuitOr(err error) error {
	if err != nil {
		return err
	}
	return errQuit
}
