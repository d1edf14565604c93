package docs

import "filez/api/internal/store"

// ControlPatch is a partial control update; nil fields keep prior values
// (or the defaults when no record exists yet).
type ControlPatch struct {
	CanEdit          *bool
	CanDownload      *bool
	CanPrint         *bool
	CanCopy          *bool
	CanComment       *bool
	CanShare         *bool
	WatermarkEnabled *bool
	WatermarkText    *string
	WatermarkType    *string
	Extensions       *string
}

// DefaultControl is the record substituted wherever no control row exists
// for a (user, document) pair: everything allowed, watermark off. Both the
// control endpoint and the editor bridge go through this one function so
// the two read paths can never disagree.
func DefaultControl(userID, docID string) store.DocControl {
	return store.DocControl{
		UserID:           userID,
		DocID:            docID,
		CanEdit:          true,
		CanDownload:      true,
		CanPrint:         true,
		CanCopy:          true,
		CanComment:       true,
		CanShare:         true,
		WatermarkEnabled: false,
		WatermarkType:    "text",
	}
}

func (p ControlPatch) apply(c *store.DocControl) {
	setBool := func(dst *bool, v *bool) {
		if v != nil {
			*dst = *v
		}
	}
	setStr := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	setBool(&c.CanEdit, p.CanEdit)
	setBool(&c.CanDownload, p.CanDownload)
	setBool(&c.CanPrint, p.CanPrint)
	setBool(&c.CanCopy, p.CanCopy)
	setBool(&c.CanComment, p.CanComment)
	setBool(&c.CanShare, p.CanShare)
	setBool(&c.WatermarkEnabled, p.WatermarkEnabled)
	setStr(&c.WatermarkText, p.WatermarkText)
	setStr(&c.WatermarkType, p.WatermarkType)
	setStr(&c.Extensions, p.Extensions)
}
