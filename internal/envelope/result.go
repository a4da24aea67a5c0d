package envelope

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Result is the closed set of shapes a downstream result is classified into.
// Implementations: TypedResult, ContentList, GenericMap, Scalar, Nil.
type Result interface {
	// Shape names the variant for logs and metrics.
	Shape() string
	isResult()
}

// TypedResult is a flat string mapping already produced by business logic.
type TypedResult struct {
	Fields map[string]string
}

// ContentList is an ordered list of tool-call content items.
type ContentList struct {
	Items []ContentItem
}

// GenericMap is an arbitrary key/value result.
type GenericMap struct {
	Fields map[string]any
}

// Scalar is any other non-nil value.
type Scalar struct {
	Value any
}

// Nil is the absence of a result.
type Nil struct{}

func (TypedResult) Shape() string { return "typed" }
func (ContentList) Shape() string { return "content_list" }
func (GenericMap) Shape() string  { return "generic_map" }
func (Scalar) Shape() string      { return "scalar" }
func (Nil) Shape() string         { return "nil" }

func (TypedResult) isResult() {}
func (ContentList) isResult() {}
func (GenericMap) isResult()  {}
func (Scalar) isResult()      {}
func (Nil) isResult()         {}

// ContentItem is one entry of a content list.
type ContentItem struct {
	// Type is "text" for text items; other values name the media kind.
	Type string
	Text string
}

// IsText reports whether the item carries text.
func (c ContentItem) IsText() bool {
	return c.Type == "text"
}

// TextItem builds a text content item.
func TextItem(text string) ContentItem {
	return ContentItem{Type: "text", Text: text}
}

// TypedResulter is implemented by business results that expose a flat
// string mapping.
type TypedResulter interface {
	UCPResult() map[string]string
}

// ContentLister is implemented by results that expose tool-call content.
type ContentLister interface {
	ContentList() []ContentItem
}

// FieldMapper is implemented by domain models that expose their wire fields.
type FieldMapper interface {
	Fields() map[string]any
}

// Classify sorts raw into one of the Result variants by the interfaces and
// concrete types it presents.
func Classify(raw any) Result {
	switch v := raw.(type) {
	case nil:
		return Nil{}
	case Result:
		return v
	case *mcp.CallToolResult:
		if v == nil {
			return Nil{}
		}
		return ContentList{Items: fromToolResult(v)}
	case TypedResulter:
		return TypedResult{Fields: v.UCPResult()}
	case ContentLister:
		return ContentList{Items: v.ContentList()}
	case Envelope:
		return GenericMap{Fields: v}
	case map[string]string:
		return TypedResult{Fields: v}
	case map[string]any:
		return GenericMap{Fields: v}
	case FieldMapper:
		return GenericMap{Fields: v.Fields()}
	default:
		return Scalar{Value: v}
	}
}

func fromToolResult(res *mcp.CallToolResult) []ContentItem {
	items := make([]ContentItem, 0, len(res.Content))
	for _, c := range res.Content {
		switch c := c.(type) {
		case *mcp.TextContent:
			items = append(items, TextItem(c.Text))
		case *mcp.ImageContent:
			items = append(items, ContentItem{Type: "image"})
		case *mcp.AudioContent:
			items = append(items, ContentItem{Type: "audio"})
		case *mcp.ResourceLink:
			items = append(items, ContentItem{Type: "resource_link"})
		case *mcp.EmbeddedResource:
			items = append(items, ContentItem{Type: "resource"})
		default:
			items = append(items, ContentItem{Type: "unknown"})
		}
	}
	return items
}
