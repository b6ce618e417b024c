package pipeline

import (
	"context"
	"fmt"
	"path"
	"strings"

	"daily-memo-go/internal/apperr"
)

// maxVersions bounds the suffix probe.
const maxVersions = 10000

// Confirmer asks the user a yes/no question and blocks until answered.
type Confirmer interface {
	AskYesNo(ctx context.Context, message string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, message string) (bool, error)

func (f ConfirmFunc) AskYesNo(ctx context.Context, message string) (bool, error) {
	return f(ctx, message)
}

// AlwaysConfirm answers yes without asking.
var AlwaysConfirm = ConfirmFunc(func(context.Context, string) (bool, error) { return true, nil })

// askNewVersion asks whether to version an existing note. A nil
// confirmer declines.
func askNewVersion(ctx context.Context, confirm Confirmer, target string) (bool, error) {
	if confirm == nil {
		return false, nil
	}
	return confirm.AskYesNo(ctx, fmt.Sprintf("File %s already exists. Create a new version?", path.Base(target)))
}

// ResolvePath returns target when it is free. Otherwise it asks whether to
// create a new version and probes "{base} - 1.md", "{base} - 2.md", ...
// for the first free path. A declined or unanswerable prompt returns
// apperr.ErrPathCollisionDeclined.
func ResolvePath(ctx context.Context, store Storage, confirm Confirmer, target string) (string, error) {
	exists, err := store.Exists(target)
	if err != nil {
		return "", err
	}
	if !exists {
		return target, nil
	}

	ok, err := askNewVersion(ctx, confirm, target)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", apperr.ErrPathCollisionDeclined
	}

	base := strings.TrimSuffix(target, path.Ext(target))
	ext := path.Ext(target)
	for n := 1; n <= maxVersions; n++ {
		candidate := fmt.Sprintf("%s - %d%s", base, n, ext)
		exists, err := store.Exists(candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no free version of %s after %d attempts", target, maxVersions)
}
