package queue

import (
	"context"

	"github.com/lms-ally/syncer/src/utils/logger"
	"github.com/lms-ally/syncer/src/utils/model"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Queue holds changes that couldn't be delivered right away.
// Rows are removed only after the batch they belong to got delivered.
type Queue struct {
	db  *gorm.DB
	log *logrus.Entry
}

func NewQueue(db *gorm.DB) (self *Queue) {
	self = new(Queue)
	self.db = db
	self.log = logger.NewSublogger("queue")
	return
}

// EnqueueContentUpdate stores the items with non empty content
func (self *Queue) EnqueueContentUpdate(ctx context.Context, eventName string, items ...*model.ComponentContent) error {
	rows := make([]*model.ContentQueueItem, 0, len(items))
	for _, item := range items {
		if item == nil || item.Content == "" {
			continue
		}
		rows = append(rows, &model.ContentQueueItem{
			ComponentId: item.Id,
			Component:   item.Component,
			CompTable:   item.Table,
			CompField:   item.Field,
			CourseId:    item.CourseId,
			EventTime:   item.TimeModified,
			EventName:   eventName,
			Content:     item.Content,
		})
	}
	if len(rows) == 0 {
		return nil
	}

	self.log.WithField("count", len(rows)).WithField("event", eventName).Debug("Queued content updates")
	return self.db.WithContext(ctx).Create(&rows).Error
}

// EnqueueContentDeletion stores tombstones of the items
func (self *Queue) EnqueueContentDeletion(ctx context.Context, items ...*model.ComponentContent) error {
	rows := make([]*model.DeletedContent, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		rows = append(rows, &model.DeletedContent{
			CompRowId:   item.Id,
			CourseId:    item.CourseId,
			Component:   item.Component,
			CompTable:   item.Table,
			CompField:   item.Field,
			TimeDeleted: item.TimeModified,
		})
	}
	if len(rows) == 0 {
		return nil
	}

	self.log.WithField("count", len(rows)).Debug("Queued content deletions")
	return self.db.WithContext(ctx).Create(&rows).Error
}

func (self *Queue) EnqueueFileDeletion(ctx context.Context, file *model.DeletedFile) error {
	return self.db.WithContext(ctx).Create(file).Error
}

// Sends rows in id order, batchSize at a time. Stops on the first failed batch, leaving it and everything after it queued.
func drain[T any](ctx context.Context, db *gorm.DB, batchSize int, id func(*T) int64, send func([]*T) error) (delivered int, err error) {
	if batchSize < 1 {
		batchSize = 1
	}

	var lastId int64
	for {
		var batch []*T
		err = db.WithContext(ctx).
			Where("id > ?", lastId).
			Order("id").
			Limit(batchSize).
			Find(&batch).
			Error
		if err != nil {
			return
		}
		if len(batch) == 0 {
			return
		}

		err = send(batch)
		if err != nil {
			return
		}

		ids := make([]int64, 0, len(batch))
		for _, row := range batch {
			ids = append(ids, id(row))
		}
		err = db.WithContext(ctx).Where("id IN ?", ids).Delete(new(T)).Error
		if err != nil {
			return
		}

		delivered += len(batch)
		lastId = ids[len(ids)-1]
	}
}

func (self *Queue) DrainDeletedContent(ctx context.Context, batchSize int, send func([]*model.DeletedContent) error) (int, error) {
	return drain(ctx, self.db, batchSize, func(r *model.DeletedContent) int64 { return r.Id }, send)
}

func (self *Queue) DrainContentQueue(ctx context.Context, batchSize int, send func([]*model.ContentQueueItem) error) (int, error) {
	return drain(ctx, self.db, batchSize, func(r *model.ContentQueueItem) int64 { return r.Id }, send)
}

func (self *Queue) DrainDeletedFiles(ctx context.Context, batchSize int, send func([]*model.DeletedFile) error) (int, error) {
	return drain(ctx, self.db, batchSize, func(r *model.DeletedFile) int64 { return r.Id }, send)
}

// Counts of queued rows, for monitoring
type Stats struct {
	DeletedContent int64 `json:"deleted_content"`
	ContentUpdates int64 `json:"content_updates"`
	DeletedFiles   int64 `json:"deleted_files"`
}

func (self *Queue) Stats(ctx context.Context) (out Stats, err error) {
	db := self.db.WithContext(ctx)
	err = db.Model(&model.DeletedContent{}).Count(&out.DeletedContent).Error
	if err != nil {
		return
	}
	err = db.Model(&model.ContentQueueItem{}).Count(&out.ContentUpdates).Error
	if err != nil {
		return
	}
	err = db.Model(&model.DeletedFile{}).Count(&out.DeletedFiles).Error
	return
}
