package component

import (
	"context"

	"github.com/lms-ally/syncer/src/utils/lms"
)

// Glossary intro is tracked like any other module, entries only get their file links rewritten
type glossaryComponent struct {
	*moduleComponent
}

func newGlossary(deps *Deps) Component {
	return &glossaryComponent{
		moduleComponent: newModule("glossary")(deps).(*moduleComponent),
	}
}

func (self *glossaryComponent) ReplaceFileLinks(ctx context.Context, file *lms.File, oldName string) error {
	if file.FileArea != "entry" {
		logUnsupportedArea(self.name, file.FileArea)
		return nil
	}
	return updateFileNamesInHTML(ctx, self.DB, lms.TableGlossaryEntries, "definition", file.ItemId, oldName, file.FileName)
}
