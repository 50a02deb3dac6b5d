package service

import (
	"context"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/LeventeLantos/relief-admin/internal/repo"
)

// GroupTask adds the selected volunteers to one group.
type GroupTask struct {
	GroupID      int64   `json:"groupId"`
	VolunteerIDs []int64 `json:"volunteerIds"`
}

type GroupAssigner struct {
	volunteers repo.VolunteerRepository
	log        *zap.Logger
}

func NewGroupAssigner(volunteers repo.VolunteerRepository, log *zap.Logger) *GroupAssigner {
	return &GroupAssigner{volunteers: volunteers, log: log.Named("groups")}
}

func (a *GroupAssigner) Assign(ctx context.Context, t GroupTask) error {
	if len(t.VolunteerIDs) == 0 {
		return nil
	}
	if err := a.volunteers.AddToGroup(ctx, t.GroupID, t.VolunteerIDs); err != nil {
		return errors.Wrapf(err, "assign %d volunteers to group %d", len(t.VolunteerIDs), t.GroupID)
	}
	a.log.Info("volunteers added to group", zap.Int64("group_id", t.GroupID), zap.Int("count", len(t.VolunteerIDs)))
	return nil
}
