package component

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/lms-ally/syncer/src/utils/model"
)

// Factory builds a component bound to the run's collaborators
type Factory func(deps *Deps) Component

// Modules whose only tracked content is the intro
var introModules = []string{
	"assign", "chat", "choice", "data", "feedback", "folder", "imscp", "kalvidres", "label",
	"lightboxgallery", "questionnaire", "quiz", "resource", "scorm", "turnitintooltwo", "url",
}

// Factories of every supported component, by name
func factories() map[string]Factory {
	out := map[string]Factory{
		"course":   newCourse,
		"book":     newBook,
		"lesson":   newLesson,
		"forum":    newForum("forum"),
		"hsuforum": newForum("hsuforum"),
		"glossary": newGlossary,
		"question": newQuestion,
		"page":     newModule("page", "intro", "content"),
	}
	for _, name := range introModules {
		out[name] = newModule(name)
	}
	return out
}

// Registry maps component names to their adapters. Built once per run, components keep per-run caches.
type Registry struct {
	components map[string]Component
}

func NewRegistry(deps *Deps) (self *Registry) {
	self = &Registry{components: make(map[string]Component)}
	for name, factory := range factories() {
		self.Register(name, factory(deps))
	}
	return
}

func (self *Registry) Register(name string, c Component) {
	self.components[name] = c
}

// Accepts both plugin style (mod_forum) and plain (forum) names
func normalize(name string) string {
	return strings.TrimPrefix(name, "mod_")
}

func (self *Registry) Get(name string) (Component, error) {
	c, ok := self.components[normalize(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownComponent, name)
	}
	return c, nil
}

func (self *Registry) HTMLContent(name string) (HTMLContent, error) {
	c, err := self.Get(name)
	if err != nil {
		return nil, err
	}
	h, ok := c.(HTMLContent)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoHTMLSupport, name)
	}
	return h, nil
}

func (self *Registry) FileLinks(name string) (FileLinks, error) {
	c, err := self.Get(name)
	if err != nil {
		return nil, err
	}
	f, ok := c.(FileLinks)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoFileSupport, name)
	}
	return f, nil
}

// HTMLSupportedComponents lists installed components with HTML content, modules prefixed with mod_
func (self *Registry) HTMLSupportedComponents(ctx context.Context) (out []string, err error) {
	for name, c := range self.components {
		if _, ok := c.(HTMLContent); !ok {
			continue
		}
		installed, err := c.IsInstalled(ctx)
		if err != nil {
			return nil, err
		}
		if !installed {
			continue
		}
		if c.Type() == TypeMod {
			name = "mod_" + name
		}
		out = append(out, name)
	}
	sort.Strings(out)
	return
}

// CourseHTMLContentItems collects content of every installed component in the course
func (self *Registry) CourseHTMLContentItems(ctx context.Context, courseId int64) (out []*model.ComponentContent, err error) {
	names := make([]string, 0, len(self.components))
	for name := range self.components {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		h, ok := self.components[name].(HTMLContent)
		if !ok {
			continue
		}
		items, err := h.CourseHTMLContentItems(ctx, courseId)
		if err != nil {
			return nil, err
		}
		out = append(out, items...)
	}
	return
}
