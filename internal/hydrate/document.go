package hydrate

import (
	"strings"

	"github.com/relaymesh/relay/internal/records"
)

// buildDocument assembles the composite document. Output is deterministic:
// element order follows the fixed category order and the relation order
// within each category, so identical inputs produce byte-identical text.
//
// Root scalars are XML-escaped. Child knowledge text is embedded verbatim:
// it is authored as markup in the store and treating it as opaque is part of
// the contract, so it is never parsed, validated, or escaped here.
func (h *Hydrator) buildDocument(root records.Record, outcomes [4]Outcome) string {
	var doc strings.Builder
	doc.WriteString("<context>\n")

	doc.WriteString("  <initiator>\n")
	doc.WriteString("    <id>" + escape(root.ID) + "</id>\n")
	writeScalar(&doc, "goal", records.StringField(root.Fields, h.cfg.GoalField))
	writeScalar(&doc, "contentType", records.StringField(root.Fields, h.cfg.ContentType))
	writeScalar(&doc, "outputType", records.StringField(root.Fields, h.cfg.OutputType))
	doc.WriteString("  </initiator>\n")

	for index, category := range h.cfg.Categories {
		texts := outcomes[index].Succeeded
		if len(texts) == 0 {
			continue
		}
		doc.WriteString("  <" + category.Name + ">\n")
		for _, text := range texts {
			doc.WriteString("    <" + category.Element + ">" + text + "</" + category.Element + ">\n")
		}
		doc.WriteString("  </" + category.Name + ">\n")
	}

	doc.WriteString("</context>")
	return doc.String()
}

func writeScalar(doc *strings.Builder, element, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	doc.WriteString("    <" + element + ">" + escape(value) + "</" + element + ">\n")
}

var escaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func escape(value string) string {
	return escaper.Replace(value)
}
