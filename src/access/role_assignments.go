package access

import (
	"context"
	"sync"

	"github.com/lms-ally/syncer/src/utils/lms"

	"gorm.io/gorm"
)

// RoleAssignments answers whether a user holds one of the configured roles in a context or its ancestors.
// Assignments are loaded on the first question and kept until Reset.
type RoleAssignments struct {
	db       *gorm.DB
	contexts *lms.Contexts
	roleIds  []int64

	mtx    sync.Mutex
	loaded bool
	users  map[int64]map[int64]struct{}
}

func NewRoleAssignments(db *gorm.DB, contexts *lms.Contexts, roleIds []int64) (self *RoleAssignments) {
	self = new(RoleAssignments)
	self.db = db
	self.contexts = contexts
	self.roleIds = roleIds
	return
}

// Reset drops the loaded assignments, the next question reads them again
func (self *RoleAssignments) Reset() {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	self.loaded = false
	self.users = nil
}

func (self *RoleAssignments) load(ctx context.Context) (err error) {
	if self.loaded {
		return
	}

	var rows []lms.RoleAssignment
	err = self.db.WithContext(ctx).
		Where("roleid IN ?", self.roleIds).
		Find(&rows).
		Error
	if err != nil {
		return
	}

	self.users = make(map[int64]map[int64]struct{})
	for _, row := range rows {
		users, ok := self.users[row.ContextId]
		if !ok {
			users = make(map[int64]struct{})
			self.users[row.ContextId] = users
		}
		users[row.UserId] = struct{}{}
	}
	self.loaded = true
	return
}

func (self *RoleAssignments) contextIds(ctx context.Context, contextId int64) (out []int64, err error) {
	c, err := self.contexts.Get(ctx, contextId)
	if err != nil {
		return
	}
	return append([]int64{c.Id}, c.AncestorIds()...), nil
}

// Has is true if the user has one of the roles in the context or any of its ancestors
func (self *RoleAssignments) Has(ctx context.Context, userId, contextId int64) (bool, error) {
	if len(self.roleIds) == 0 {
		return false, nil
	}

	self.mtx.Lock()
	defer self.mtx.Unlock()

	err := self.load(ctx)
	if err != nil {
		return false, err
	}

	ids, err := self.contextIds(ctx, contextId)
	if err != nil {
		return false, err
	}

	for _, id := range ids {
		if _, ok := self.users[id][userId]; ok {
			return true, nil
		}
	}
	return false, nil
}

// UserIdsForContext lists users holding one of the roles in the context or any of its ancestors
func (self *RoleAssignments) UserIdsForContext(ctx context.Context, contextId int64) (out []int64, err error) {
	if len(self.roleIds) == 0 {
		return
	}

	self.mtx.Lock()
	defer self.mtx.Unlock()

	err = self.load(ctx)
	if err != nil {
		return
	}

	ids, err := self.contextIds(ctx, contextId)
	if err != nil {
		return
	}

	seen := make(map[int64]struct{})
	for _, id := range ids {
		for userId := range self.users[id] {
			if _, ok := seen[userId]; ok {
				continue
			}
			seen[userId] = struct{}{}
			out = append(out, userId)
		}
	}
	return
}
