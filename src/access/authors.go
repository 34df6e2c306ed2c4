package access

import (
	"context"
	"slices"
)

// Authors decides whose content is trusted: site administrators and holders of author roles
type Authors struct {
	adminIds []int64
	roles    *RoleAssignments
}

func NewAuthors(adminIds []int64, roles *RoleAssignments) *Authors {
	return &Authors{adminIds: adminIds, roles: roles}
}

func (self *Authors) Reset() {
	self.roles.Reset()
}

func (self *Authors) IsAdmin(userId int64) bool {
	return slices.Contains(self.adminIds, userId)
}

// IsApproved is true for admins and users with an author role in the context or above
func (self *Authors) IsApproved(ctx context.Context, userId, contextId int64) (bool, error) {
	if userId == 0 {
		return false, nil
	}
	if self.IsAdmin(userId) {
		return true, nil
	}
	return self.roles.Has(ctx, userId, contextId)
}

// ApprovedIds lists admins and author role holders for the context
func (self *Authors) ApprovedIds(ctx context.Context, contextId int64) (out []int64, err error) {
	ids, err := self.roles.UserIdsForContext(ctx, contextId)
	if err != nil {
		return
	}
	out = slices.Clone(self.adminIds)
	for _, id := range ids {
		if id != 0 && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return
}
