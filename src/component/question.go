package component

import (
	"context"

	"github.com/lms-ally/syncer/src/utils/lms"
	"github.com/lms-ally/syncer/src/utils/logger"

	"github.com/sirupsen/logrus"
)

// Table holding feedback of a question type, rows reference the question through idField
type qtypeOptions struct {
	table   string
	idField string
}

// New question types need an entry here, unknown ones are skipped
var qtypeFeedbackTables = map[string]qtypeOptions{
	"ddimageortext": {"qtype_ddimageortext", "questionid"},
	"ddmarker":      {"qtype_ddmarker", "questionid"},
	"ddwtos":        {"question_ddwtos", "questionid"},
	"gapfill":       {"question_gapfill", "question"},
	"gapselect":     {"question_gapselect", "questionid"},
	"match":         {"qtype_match_options", "questionid"},
	"multichoice":   {"qtype_multichoice_options", "questionid"},
	"randomsamatch": {"qtype_randomsamatch_options", "questionid"},
}

var qtypeFeedbackAreas = map[string]struct{}{
	"correctfeedback":          {},
	"partiallycorrectfeedback": {},
	"incorrectfeedback":        {},
}

// Question bank. Questions aren't tracked as content, only their file links are kept up to date.
type questionComponent struct {
	base
	log *logrus.Entry
}

func newQuestion(deps *Deps) Component {
	return &questionComponent{
		base: newBase(deps, "question", TypeCore, map[string][]string{}),
		log:  logger.NewSublogger("question"),
	}
}

func (self *questionComponent) ReplaceFileLinks(ctx context.Context, file *lms.File, oldName string) error {
	switch file.FileArea {
	case "questiontext", "generalfeedback":
		return updateFileNamesInHTML(ctx, self.DB, lms.TableQuestion, file.FileArea, file.ItemId, oldName, file.FileName)
	case "answer":
		return updateFileNamesInHTML(ctx, self.DB, lms.TableQuestionAnswers, "answer", file.ItemId, oldName, file.FileName)
	case "answerfeedback":
		return updateFileNamesInHTML(ctx, self.DB, lms.TableQuestionAnswers, "feedback", file.ItemId, oldName, file.FileName)
	}

	if _, ok := qtypeFeedbackAreas[file.FileArea]; !ok {
		logUnsupportedArea(self.name, file.FileArea)
		return nil
	}

	var q lms.Question
	res := self.DB.WithContext(ctx).Select("id", "qtype").Where("id = ?", file.ItemId).Limit(1).Find(&q)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		self.log.WithField("question", file.ItemId).Debug("Question of the file is gone")
		return nil
	}

	options, ok := qtypeFeedbackTables[q.QType]
	if !ok {
		self.log.WithField("qtype", q.QType).WithField("filearea", file.FileArea).Debug("Question type not mapped for link replacement")
		return nil
	}

	return updateFileNamesInHTMLBy(ctx, self.DB, options.table, options.idField, file.FileArea, q.Id, oldName, file.FileName)
}
