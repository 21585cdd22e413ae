package hydrate

import (
	"context"
	"strings"

	"github.com/relaymesh/relay/internal/records"
)

// HydrateAssembled is the degraded compatibility path. It never fetches
// child records: when the root carries a non-empty prebuilt aggregate field
// (some deployments precompute the composite inside the store) that field is
// returned verbatim; otherwise the relation ids are embedded as attributes
// and the caller is expected to resolve them itself.
func (h *Hydrator) HydrateAssembled(ctx context.Context, rootID, baseID string) (Result, error) {
	base, err := h.resolveBase(baseID)
	if err != nil {
		return Result{}, err
	}

	root, err := h.client.GetByID(ctx, base, h.cfg.RootTable, rootID)
	if err != nil {
		return Result{}, err
	}

	if prebuilt := records.StringField(root.Fields, h.cfg.Assembled); strings.TrimSpace(prebuilt) != "" {
		return Result{Mode: ModePrebuilt, RootID: root.ID, XML: prebuilt}, nil
	}

	var doc strings.Builder
	doc.WriteString("<context>\n")
	doc.WriteString("  <initiator>\n")
	doc.WriteString("    <id>" + escape(root.ID) + "</id>\n")
	writeScalar(&doc, "goal", records.StringField(root.Fields, h.cfg.GoalField))
	writeScalar(&doc, "contentType", records.StringField(root.Fields, h.cfg.ContentType))
	writeScalar(&doc, "outputType", records.StringField(root.Fields, h.cfg.OutputType))
	doc.WriteString("  </initiator>\n")
	for _, category := range h.cfg.Categories {
		ids := records.StringSliceField(root.Fields, category.RelationField)
		if len(ids) == 0 {
			continue
		}
		doc.WriteString("  <" + category.Name + " ids=\"" + escape(strings.Join(ids, ",")) + "\"/>\n")
	}
	doc.WriteString("</context>")

	return Result{Mode: ModeAssembledIDs, RootID: root.ID, XML: doc.String()}, nil
}
