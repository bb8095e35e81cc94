package lark

import (
	"context"
	"fmt"
	"sync"
	"time"

	larkcontact "github.com/larksuite/oapi-sdk-go/v3/service/contact/v3"
	"go.uber.org/zap"

	"github.com/garyjia/reimbursement-approval/internal/application/port"
	"github.com/garyjia/reimbursement-approval/internal/domain/document"
	"github.com/garyjia/reimbursement-approval/pkg/utils"
)

// Directory resolves user IDs through the Lark contact API. The set of
// privileged substitutes comes from configuration, not from Lark; profile
// lookups are cached for a short period to keep reminder passes cheap.
type Directory struct {
	client      *Client
	substitutes map[document.UserID]bool
	logger      *zap.Logger

	mu       sync.RWMutex
	cache    map[document.UserID]cachedProfile
	cacheTTL time.Duration
}

type cachedProfile struct {
	profile   port.UserProfile
	fetchedAt time.Time
}

// NewDirectory creates a new Lark-backed user directory
func NewDirectory(client *Client, substituteIDs []string, logger *zap.Logger) *Directory {
	substitutes := make(map[document.UserID]bool, len(substituteIDs))
	for _, id := range substituteIDs {
		substitutes[document.UserID(id)] = true
	}
	return &Directory{
		client:      client,
		substitutes: substitutes,
		logger:      logger,
		cache:       make(map[document.UserID]cachedProfile),
		cacheTTL:    5 * time.Minute,
	}
}

var _ port.UserDirectory = (*Directory)(nil)

// Lookup resolves a user ID to their profile
func (d *Directory) Lookup(ctx context.Context, id document.UserID) (*port.UserProfile, error) {
	d.mu.RLock()
	cached, hit := d.cache[id]
	d.mu.RUnlock()
	if hit && time.Since(cached.fetchedAt) < d.cacheTTL {
		profile := cached.profile
		return &profile, nil
	}

	req := larkcontact.NewGetUserReqBuilder().
		UserId(string(id)).
		UserIdType("user_id").
		Build()

	resp, err := d.client.client.Contact.User.Get(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if !resp.Success() {
		if resp.Code == userNotFoundCode {
			return nil, fmt.Errorf("%w: %s", port.ErrUserNotFound, id)
		}
		return nil, fmt.Errorf("API error: code=%d, msg=%s", resp.Code, resp.Msg)
	}
	if resp.Data == nil || resp.Data.User == nil {
		return nil, fmt.Errorf("%w: %s", port.ErrUserNotFound, id)
	}

	profile := port.UserProfile{
		ID:                     id,
		IsPrivilegedSubstitute: d.substitutes[id],
	}
	if resp.Data.User.Name != nil {
		profile.Name = *resp.Data.User.Name
	}
	if resp.Data.User.Email != nil {
		if err := utils.ValidateEmail(*resp.Data.User.Email); err == nil {
			profile.Email = *resp.Data.User.Email
		}
	}

	d.mu.Lock()
	d.cache[id] = cachedProfile{profile: profile, fetchedAt: time.Now()}
	d.mu.Unlock()

	return &profile, nil
}

// Lark contact API code for a missing user
const userNotFoundCode = 40002
