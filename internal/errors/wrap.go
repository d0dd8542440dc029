package errors

import "fmt"

// Wrap annotates err with msg while keeping the sentinel chain intact,
// so errors.Is keeps matching on the result. A nil err returns nil,
// which makes inline use safe:
//
//	if err := stageManifest(); err != nil {
//	    return errors.Wrap(err, "stage manifest")
//	}
//
// Annotate once, at the package boundary; every extra layer buries the
// message the user actually needs.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf is Wrap with a formatted annotation:
//
//	return errors.Wrapf(err, "tag %s", version)
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	msg := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", msg, err)
}
