package tui

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	keelerrors "github.com/mrz1836/keel/internal/errors"
)

// Option is one selectable entry in a Select prompt.
type Option struct {
	Label string
	Value string
}

// KeelTheme returns the huh theme using the package colors.
func KeelTheme() *huh.Theme {
	CheckNoColor()

	t := huh.ThemeBase()

	t.Focused.Base = t.Focused.Base.BorderForeground(ColorPrimary)
	t.Focused.Title = t.Focused.Title.Foreground(ColorPrimary)
	t.Focused.SelectSelector = t.Focused.SelectSelector.Foreground(ColorPrimary)
	t.Focused.SelectedOption = t.Focused.SelectedOption.Foreground(ColorPrimary)
	t.Focused.TextInput.Cursor = t.Focused.TextInput.Cursor.Foreground(ColorPrimary)
	t.Focused.SelectedPrefix = t.Focused.SelectedPrefix.Foreground(ColorSuccess)
	t.Focused.ErrorMessage = t.Focused.ErrorMessage.Foreground(ColorError)
	t.Focused.ErrorIndicator = t.Focused.ErrorIndicator.Foreground(ColorError)
	t.Blurred.Base = t.Blurred.Base.BorderForeground(ColorMuted)
	t.Blurred.Title = t.Blurred.Title.Foreground(ColorMuted)
	t.Focused.Description = t.Focused.Description.Foreground(ColorMuted)
	t.Help.Ellipsis = t.Help.Ellipsis.Foreground(ColorMuted)

	return t
}

// runForm runs a single-field form with the package theme. Without a
// terminal on stdin the prompt cannot be answered, which counts as a
// cancellation.
func runForm(field huh.Field, errorContext string) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return keelerrors.ErrPromptCanceled
	}

	form := huh.NewForm(huh.NewGroup(field)).WithTheme(KeelTheme())
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return keelerrors.ErrPromptCanceled
		}
		return fmt.Errorf("%s: %w", errorContext, err)
	}
	return nil
}

// Confirm presents a yes/no prompt. Returns ErrPromptCanceled when the
// user aborts or no terminal is attached.
func Confirm(message string, defaultYes bool) (bool, error) {
	confirmed := defaultYes

	field := huh.NewConfirm().
		Title(message).
		Affirmative("Yes").
		Negative("No").
		Value(&confirmed)

	if err := runForm(field, "confirm prompt failed"); err != nil {
		return false, err
	}
	return confirmed, nil
}

// Select presents a single-selection prompt and returns the chosen value.
func Select(title string, options []Option) (string, error) {
	if len(options) == 0 {
		return "", keelerrors.ErrNoPromptOptions
	}

	huhOptions := make([]huh.Option[string], len(options))
	for i, opt := range options {
		huhOptions[i] = huh.NewOption(opt.Label, opt.Value)
	}

	var selected string
	field := huh.NewSelect[string]().
		Title(title).
		Options(huhOptions...).
		Value(&selected)

	if err := runForm(field, "select prompt failed"); err != nil {
		return "", err
	}
	return selected, nil
}

// Input presents a single-line text input prompt with optional validation.
func Input(prompt, defaultValue string, validate func(string) error) (string, error) {
	value := defaultValue

	field := huh.NewInput().
		Title(prompt).
		Value(&value)
	if validate != nil {
		field = field.Validate(validate)
	}

	if err := runForm(field, "input prompt failed"); err != nil {
		return "", err
	}
	return value, nil
}

// otpPattern matches registry one-time passwords.
var otpPattern = regexp.MustCompile(`^[0-9]{6,10}$`)

// OTP prompts for a registry one-time password. The input is masked and
// validated to be a 6-10 digit code.
func OTP() (string, error) {
	var code string

	field := huh.NewInput().
		Title("Enter npm one-time password").
		EchoMode(huh.EchoModePassword).
		Validate(func(s string) error {
			if !otpPattern.MatchString(s) {
				return keelerrors.ErrOTPRejected
			}
			return nil
		}).
		Value(&code)

	if err := runForm(field, "otp prompt failed"); err != nil {
		return "", err
	}
	return code, nil
}
