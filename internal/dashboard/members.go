package dashboard

import (
	"context"

	"github.com/safar/store-dashboard/internal/models"
	"go.uber.org/zap"
)

const DefaultMembersLimit = 50

type MemberView struct {
	ID      int64  `json:"id"`
	UserID  int64  `json:"user_id"`
	Name    string `json:"name"`
	Plan    string `json:"plan"`
	Expires string `json:"expires"`
}

type MemberDirectory struct {
	members MembershipSource
	limit   int
	log     *zap.Logger
}

// NewMemberDirectory wires the directory. members may be nil.
func NewMemberDirectory(members MembershipSource, limit int, log *zap.Logger) *MemberDirectory {
	if limit < 1 {
		limit = DefaultMembersLimit
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &MemberDirectory{members: members, limit: limit, log: log}
}

// ListMembers returns active members, newest first, capped at the
// directory limit. A missing or failing membership source yields an
// empty list.
func (d *MemberDirectory) ListMembers(ctx context.Context) []MemberView {
	views := []MemberView{}
	if d.members == nil {
		return views
	}

	memberships, err := d.members.ListActiveMemberships(ctx, d.limit)
	if err != nil {
		d.log.Warn("membership list unavailable", zap.Error(err))
		return views
	}

	for _, m := range memberships {
		views = append(views, memberView(m))
	}
	return views
}

func memberView(m models.Membership) MemberView {
	v := MemberView{
		ID:      m.ID,
		UserID:  m.UserID,
		Name:    m.Name,
		Plan:    m.PlanName,
		Expires: "Never",
	}
	if v.Name == "" {
		v.Name = "Unknown"
	}
	if v.Plan == "" {
		v.Plan = "Unknown Plan"
	}
	if m.ExpiresAt != nil {
		v.Expires = m.ExpiresAt.Format("2006-01-02")
	}
	return v
}
