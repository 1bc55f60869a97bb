package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

var (
	errInvalidArgument = errors.New("invalid argument")
	errNotGroupMember  = errors.New("caller is not a member of the group")
)

func invalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errInvalidArgument, fmt.Sprintf(format, args...))
}

// toConnectError maps domain errors onto Connect codes and logs the failure.
func toConnectError(op string, err error) error {
	code := connect.CodeInternal
	switch {
	case errors.Is(err, storage.ErrNotFound):
		code = connect.CodeNotFound
	case errors.Is(err, errNotGroupMember):
		code = connect.CodePermissionDenied
	case errors.Is(err, calculator.ErrInvalidSplit),
		errors.Is(err, ledger.ErrInvalidPayment),
		errors.Is(err, ledger.ErrInvalidExpense),
		errors.Is(err, errInvalidArgument):
		code = connect.CodeInvalidArgument
	}

	if code == connect.CodeInternal {
		slog.Error(op+" failed", "error", err)
	} else {
		slog.Info(op+" rejected", "code", code.String(), "error", err)
	}
	return connect.NewError(code, err)
}

// actor is the authenticated caller, or fallback when auth is off.
func actor(ctx context.Context, fallback string) string {
	if member := middleware.GetMember(ctx); member != "" {
		return member
	}
	return fallback
}

// authorize rejects authenticated callers who are not members of group.
// Anonymous calls only reach the services when auth is disabled.
func authorize(ctx context.Context, group *models.Group) error {
	member := middleware.GetMember(ctx)
	if member == "" || group.HasMember(member) {
		return nil
	}
	return fmt.Errorf("%w: %q in group %s", errNotGroupMember, member, group.ID)
}

// loadGroup fetches a group the caller is allowed to see.
func loadGroup(ctx context.Context, store storage.GroupStore, groupID string) (*models.Group, error) {
	group, err := store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

// cleanNames drops blanks and duplicates, keeping first-seen order.
func cleanNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n == "" || slices.Contains(out, n) {
			continue
		}
		out = append(out, n)
	}
	return out
}
