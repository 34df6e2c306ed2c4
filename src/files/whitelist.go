package files

import "github.com/lms-ally/syncer/src/utils/model"

// Areas only editing users can upload to, files there are trusted whoever the uploader is
var whitelist = map[string]struct{}{
	"block_html~content":                 {},
	"calendar~event_description":         {},
	"course~overviewfiles":               {},
	"course~section":                     {},
	"course~summary":                     {},
	"group~description":                  {},
	"mod_assign~intro":                   {},
	"mod_assign~introattachment":         {},
	"mod_book~chapter":                   {},
	"mod_book~intro":                     {},
	"mod_chat~intro":                     {},
	"mod_choice~intro":                   {},
	"mod_data~content":                   {},
	"mod_feedback~intro":                 {},
	"mod_folder~content":                 {},
	"mod_folder~intro":                   {},
	"mod_forum~attachment":               {},
	"mod_forum~intro":                    {},
	"mod_forum~post":                     {},
	"mod_glossary~attachment":            {},
	"mod_glossary~entry":                 {},
	"mod_glossary~intro":                 {},
	"mod_hsuforum~attachment":            {},
	"mod_hsuforum~comments":              {},
	"mod_hsuforum~intro":                 {},
	"mod_hsuforum~post":                  {},
	"mod_imscp~content":                  {},
	"mod_kalvidres~intro":                {},
	"mod_label~intro":                    {},
	"mod_lesson~intro":                   {},
	"mod_lesson~mediafile":               {},
	"mod_lesson~page_answers":            {},
	"mod_lesson~page_contents":           {},
	"mod_lesson~page_responses":          {},
	"mod_lightboxgallery~gallery_images": {},
	"mod_page~content":                   {},
	"mod_page~intro":                     {},
	"mod_questionnaire~info":             {},
	"mod_questionnaire~intro":            {},
	"mod_questionnaire~question":         {},
	"mod_quiz~intro":                     {},
	"mod_resource~intro":                 {},
	"mod_resource~content":               {},
	"mod_scorm~content":                  {},
	"mod_scorm~intro":                    {},
	"mod_turnitintooltwo~intro":          {},
	"mod_url~intro":                      {},
}

func Whitelisted(component, filearea string) bool {
	_, ok := whitelist[model.FileArea(component, filearea)]
	return ok
}
