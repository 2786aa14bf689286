package session

import (
	"context"
	"fmt"

	"github.com/aretw0/tgdialogs/pkg/domain"
)

// Resolver finds the active dialog of an update.
type Resolver struct {
	repo *Repository
}

// NewResolver creates a resolver looking keys up in repo.
func NewResolver(repo *Repository) *Resolver {
	return &Resolver{repo: repo}
}

// Candidates lists the keys an update may belong to, by precedence.
func Candidates(u *domain.Update) []string {
	chat := u.Chat()
	if chat == nil {
		return nil
	}
	keys := []string{ChatKey(chat.ID)}
	if sender := u.Sender(); sender != nil {
		keys = append(keys, UserKey(chat.ID, sender.ID))
	}
	return keys
}

// Resolve returns the key of the active dialog for u. The chat-bound key takes precedence.
func (r *Resolver) Resolve(ctx context.Context, u *domain.Update) (string, bool, error) {
	for _, key := range Candidates(u) {
		ok, err := r.repo.Has(ctx, key)
		if err != nil {
			return "", false, fmt.Errorf("resolve %q: %w", key, err)
		}
		if ok {
			return key, true, nil
		}
	}
	return "", false, nil
}
