package lms

import (
	"fmt"
	"net/url"
	"strings"
)

// Builds links into the host LMS
type Urls struct {
	wwwRoot string
}

func NewUrls(wwwRoot string) *Urls {
	return &Urls{wwwRoot: strings.TrimRight(wwwRoot, "/")}
}

func (self *Urls) Course(courseId int64) string {
	return fmt.Sprintf("%s/course/view.php?id=%d", self.wwwRoot, courseId)
}

func (self *Urls) CourseEdit(courseId int64) string {
	return fmt.Sprintf("%s/course/edit.php?id=%d", self.wwwRoot, courseId)
}

func (self *Urls) CourseSection(courseId, sectionNumber int64) string {
	return fmt.Sprintf("%s/course/view.php?id=%d#section-%d", self.wwwRoot, courseId, sectionNumber)
}

// Anchor of the module on the course page
func (self *Urls) CourseModule(courseId, courseModuleId int64) string {
	return fmt.Sprintf("%s/course/view.php?id=%d#module-%d", self.wwwRoot, courseId, courseModuleId)
}

func (self *Urls) ModuleView(moduleName string, courseModuleId int64, params url.Values) string {
	if params == nil {
		params = url.Values{}
	}
	params.Set("id", fmt.Sprintf("%d", courseModuleId))
	return fmt.Sprintf("%s/mod/%s/view.php?%s", self.wwwRoot, moduleName, params.Encode())
}

func (self *Urls) Discussion(moduleName string, discussionId int64) string {
	return fmt.Sprintf("%s/mod/%s/discuss.php?d=%d", self.wwwRoot, moduleName, discussionId)
}

// Areas served without the item id segment when the item id is 0
var itemlessAreas = map[string]struct{}{
	"block_html~content": {},
	"course~legacy":      {},
	"course~summary":     {},
}

func (self *Urls) pluginfile(prefix string, f *File) string {
	var b strings.Builder
	b.WriteString(self.wwwRoot)
	b.WriteString(prefix)
	b.WriteString("/pluginfile.php/")
	fmt.Fprintf(&b, "%d/%s/%s", f.ContextId, f.Component, f.FileArea)

	_, itemless := itemlessAreas[f.Component+"~"+f.FileArea]
	if f.ItemId != 0 || !(f.FileArea == "intro" || itemless) {
		fmt.Fprintf(&b, "/%d", f.ItemId)
	}

	b.WriteString(f.FilePath)
	b.WriteString(url.PathEscape(f.FileName))
	return b.String()
}

// Pluginfile links the file for browsers
func (self *Urls) Pluginfile(f *File) string {
	return self.pluginfile("", f)
}

// WebservicePluginfile links the file for token authenticated clients
func (self *Urls) WebservicePluginfile(f *File) string {
	return self.pluginfile("/webservice", f)
}
