package dto

type ContactProperties struct {
	Email     string `json:"email"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Phone     string `json:"phone"`
}

type ContactRecord struct {
	ID         string            `json:"id,omitempty"`
	Properties ContactProperties `json:"properties"`
}

type PagingNext struct {
	After string `json:"after"`
}

type Paging struct {
	Next *PagingNext `json:"next,omitempty"`
}

type ListContactsResponse struct {
	Results []ContactRecord `json:"results"`
	Paging  *Paging         `json:"paging,omitempty"`
}

// NextAfter returns the cursor for the following page, or "" on the last page.
func (r *ListContactsResponse) NextAfter() string {
	if r.Paging == nil || r.Paging.Next == nil {
		return ""
	}
	return r.Paging.Next.After
}

type BatchCreateInput struct {
	Properties ContactProperties `json:"properties"`
}

type BatchCreateRequest struct {
	Inputs []BatchCreateInput `json:"inputs"`
}

type BatchCreateResponse struct {
	Status  string          `json:"status,omitempty"`
	Results []ContactRecord `json:"results"`
}

type ErrorResponse struct {
	Status  string `json:"status,omitempty"`
	Message string `json:"message"`
}
