package validator

import (
	"fmt"
	"net/url"
	"strings"

	"app/internal/domain/model"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
)

// セクション1件の検証エラー。
// セクション単位ではfail fastだが、そのセクション内の
// フィールドエラーは全部まとめて返す。
type SectionError struct {
	SectionType string
	Fields      []string
}

func (e *SectionError) Error() string {
	return fmt.Sprintf("section %q: %s", e.SectionType, strings.Join(e.Fields, ", "))
}

// 未知のセクション種別。
type UnknownSectionTypeError struct {
	SectionType string
}

func (e *UnknownSectionTypeError) Error() string {
	return fmt.Sprintf("unknown section type %q", e.SectionType)
}

// 種別ごとの検証関数。dataを直接書き換えてよい
// （sanitize、idの採番、orderのデフォルトなど）。
type sectionValidateFunc func(v *SectionValidator, s *model.Section, pageIDs map[string]bool) []string

type SectionValidator struct {
	sanitizer *bluemonday.Policy
}

func NewSectionValidator() *SectionValidator {
	return &SectionValidator{
		sanitizer: bluemonday.UGCPolicy(),
	}
}

// 種別→検証関数のディスパッチテーブル
var sectionValidators = map[string]sectionValidateFunc{
	model.SectionTypeHero:         validateHero,
	model.SectionTypeFeatures:     validateItemList("items", "title"),
	model.SectionTypeFooter:       validateFooter,
	model.SectionTypeCTA:          validateCTA,
	model.SectionTypeTestimonials: validateItemList("items", "quote", "author"),
	model.SectionTypeStats:        validateItemList("items", "label", "value"),
	model.SectionTypeContent:      validateContent,
	model.SectionTypeBlogPosts:    validateBlogPosts,
	model.SectionTypePages:        validatePages,
	model.SectionTypeProducts:     validateProducts,
}

// 全セクションを順に検証する。
// pageIDsは「page」型リンクの参照先チェックに使う。
func (v *SectionValidator) ValidateAll(sections []model.Section, pageIDs map[string]bool) error {
	for i := range sections {
		s := &sections[i]

		fn, ok := sectionValidators[s.Type]
		if !ok {
			return &UnknownSectionTypeError{SectionType: s.Type}
		}

		if s.ID == "" {
			s.ID = uuid.NewString()
		}
		// セクション自体のorderは呼び出し側の並びをそのまま信じる。
		// index詰めをするのは要素リスト側だけ。
		if s.Data == nil {
			s.Data = map[string]any{}
		}

		if fields := fn(v, s, pageIDs); len(fields) > 0 {
			return &SectionError{SectionType: s.Type, Fields: fields}
		}
	}
	return nil
}

func validateHero(_ *SectionValidator, s *model.Section, _ map[string]bool) []string {
	var fields []string
	if stringField(s.Data, "title") == "" {
		fields = append(fields, "title is required")
	}
	return fields
}

func validateFooter(_ *SectionValidator, s *model.Section, _ map[string]bool) []string {
	//任意フィールドのみ。型だけ確認する。
	var fields []string
	for _, key := range []string{"brandName", "copyright", "logoUrl"} {
		if raw, ok := s.Data[key]; ok {
			if _, ok := raw.(string); !ok {
				fields = append(fields, key+" must be a string")
			}
		}
	}
	return fields
}

func validateCTA(_ *SectionValidator, s *model.Section, pageIDs map[string]bool) []string {
	var fields []string
	if stringField(s.Data, "title") == "" {
		fields = append(fields, "title is required")
	}

	links, _ := s.Data["links"].([]any)
	for i, raw := range links {
		link, ok := raw.(map[string]any)
		if !ok {
			fields = append(fields, fmt.Sprintf("links[%d] must be an object", i))
			continue
		}
		fields = append(fields, validateLink(link, i, pageIDs)...)
	}

	return fields
}

// リンクの種別ごとの検証。
// url型: 絶対URL、または "/"・"#" 始まり。
// page型: 既存ページのid参照。それ以外の型は拒否。
func validateLink(link map[string]any, idx int, pageIDs map[string]bool) []string {
	var fields []string

	switch stringField(link, "type") {
	case "url":
		raw := stringField(link, "url")
		if raw == "" {
			fields = append(fields, fmt.Sprintf("links[%d].url is required", idx))
			break
		}
		if strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "#") {
			break
		}
		u, err := url.Parse(raw)
		if err != nil || !u.IsAbs() {
			fields = append(fields, fmt.Sprintf("links[%d].url must be absolute or start with / or #", idx))
		}
	case "page":
		pageID := stringField(link, "pageId")
		if pageID == "" {
			fields = append(fields, fmt.Sprintf("links[%d].pageId is required", idx))
			break
		}
		if !pageIDs[pageID] {
			fields = append(fields, fmt.Sprintf("links[%d].pageId references an unknown page", idx))
		}
	default:
		fields = append(fields, fmt.Sprintf("links[%d].type must be url or page", idx))
	}

	return fields
}

func validateContent(v *SectionValidator, s *model.Section, _ map[string]bool) []string {
	html := stringField(s.Data, "html")
	if html == "" {
		return []string{"html is required"}
	}

	//HTMLはサニタイズして保存
	s.Data["html"] = v.sanitizer.Sanitize(html)
	return nil
}

func validateBlogPosts(_ *SectionValidator, s *model.Section, _ map[string]bool) []string {
	var fields []string
	if raw, ok := s.Data["count"]; ok {
		n, ok := raw.(float64)
		if !ok || n < 0 {
			fields = append(fields, "count must be a non-negative number")
		}
	}
	return fields
}

func validatePages(_ *SectionValidator, s *model.Section, _ map[string]bool) []string {
	var fields []string

	items, _ := s.Data["items"].([]any)
	for i, raw := range items {
		item, ok := raw.(map[string]any)
		if !ok {
			fields = append(fields, fmt.Sprintf("items[%d] must be an object", i))
			continue
		}
		if stringField(item, "id") == "" {
			fields = append(fields, fmt.Sprintf("items[%d].id is required", i))
		}
		if stringField(item, "title") == "" {
			fields = append(fields, fmt.Sprintf("items[%d].title is required", i))
		}
	}

	return fields
}

func validateProducts(_ *SectionValidator, s *model.Section, _ map[string]bool) []string {
	var fields []string
	if raw, ok := s.Data["productIds"]; ok {
		ids, ok := raw.([]any)
		if !ok {
			return []string{"productIds must be an array"}
		}
		for i, id := range ids {
			if _, ok := id.(float64); !ok {
				fields = append(fields, fmt.Sprintf("productIds[%d] must be a number", i))
			}
		}
	}
	return fields
}

// 要素リスト型セクション（features/testimonials/stats）の共通検証。
// idが無ければ採番、orderが無ければ配列indexで埋める。
func validateItemList(key string, required ...string) sectionValidateFunc {
	return func(_ *SectionValidator, s *model.Section, _ map[string]bool) []string {
		var fields []string

		items, _ := s.Data[key].([]any)
		for i, raw := range items {
			item, ok := raw.(map[string]any)
			if !ok {
				fields = append(fields, fmt.Sprintf("%s[%d] must be an object", key, i))
				continue
			}

			for _, req := range required {
				if stringField(item, req) == "" {
					fields = append(fields, fmt.Sprintf("%s[%d].%s is required", key, i, req))
				}
			}

			if stringField(item, "id") == "" {
				item["id"] = uuid.NewString()
			}
			if _, ok := item["order"]; !ok {
				item["order"] = i
			}
		}

		return fields
	}
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return strings.TrimSpace(s)
}

// ドキュメント内の「pages」セクションから参照可能なページidを集める
func CollectPageIDs(sections []model.Section) map[string]bool {
	ids := map[string]bool{}
	for _, s := range sections {
		if s.Type != model.SectionTypePages {
			continue
		}
		items, _ := s.Data["items"].([]any)
		for _, raw := range items {
			item, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			if id := stringField(item, "id"); id != "" {
				ids[id] = true
			}
		}
	}
	return ids
}
