package fields

// View is the flattened JSON representation of a field.
type View struct {
	ID          string      `json:"id"`
	PersistedID string      `json:"persisted_id,omitempty"`
	Type        Kind        `json:"type"`
	PageNumber  int         `json:"page_number"`
	X           float64     `json:"x"`
	Y           float64     `json:"y"`
	Width       float64     `json:"width"`
	Height      float64     `json:"height,omitempty"`
	Image       string      `json:"image,omitempty"`
	ImageURL    string      `json:"image_url,omitempty"`
	Text        string      `json:"text,omitempty"`
	SignerName  string      `json:"signer_name,omitempty"`
	SignerTitle string      `json:"signer_title,omitempty"`
	Assignment  *Assignment `json:"assignment,omitempty"`
	Placeholder bool        `json:"is_placeholder"`
	Delegated   bool        `json:"is_delegated"`
	Signed      bool        `json:"is_signed"`
}

// ToView flattens f for serialization.
func ToView(f Field) View {
	b := f.Base()
	m := f.Mark()
	return View{
		ID:          b.ID,
		PersistedID: b.PersistedID,
		Type:        f.Kind(),
		PageNumber:  b.PageNumber,
		X:           b.X,
		Y:           b.Y,
		Width:       b.Width,
		Height:      b.Height,
		Image:       m.Image,
		ImageURL:    m.ImageURL,
		Text:        m.Text,
		SignerName:  b.Signer.Name,
		SignerTitle: b.Signer.Title,
		Assignment:  cloneAssignment(b.Assignment),
		Placeholder: b.Placeholder,
		Delegated:   b.Delegated,
		Signed:      b.Signed,
	}
}

// ToViews flattens a field list.
func ToViews(fs []Field) []View {
	views := make([]View, len(fs))
	for i, f := range fs {
		views[i] = ToView(f)
	}
	return views
}
