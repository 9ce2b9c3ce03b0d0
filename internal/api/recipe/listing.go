package recipes

import (
	"html/template"
	"net/url"
	"strconv"

	"sitecooking/pkg/view"
)

// Order is the home page filter chosen through the "order" query value.
type Order string

const (
	OrderDefault      Order = ""
	OrderWithPhoto    Order = "with_photo"
	OrderWithoutPhoto Order = "without_photo"
	OrderNewest       Order = "new"
	OrderOldest       Order = "old"
)

// ParseOrder maps unknown values to OrderDefault.
func ParseOrder(raw string) Order {
	switch o := Order(raw); o {
	case OrderWithPhoto, OrderWithoutPhoto, OrderNewest, OrderOldest:
		return o
	default:
		return OrderDefault
	}
}

// Predicate is the extra WHERE condition for the order, empty when none.
func (o Order) Predicate() string {
	switch o {
	case OrderWithPhoto:
		return "r.photo <> ''"
	case OrderWithoutPhoto:
		return "r.photo = ''"
	default:
		return ""
	}
}

func (o Order) OrderBy() string {
	switch o {
	case OrderNewest:
		return "r.time_create DESC, r.id DESC"
	case OrderOldest:
		return "r.time_create ASC, r.id ASC"
	default:
		return "r.id ASC"
	}
}

var orderLabels = []struct {
	order Order
	label string
}{
	{OrderDefault, "Default"},
	{OrderWithPhoto, "With photo"},
	{OrderWithoutPhoto, "Without photo"},
	{OrderNewest, "Newest first"},
	{OrderOldest, "Oldest first"},
}

type ScopeKind int

const (
	ScopeHome ScopeKind = iota
	ScopeCategory
	ScopeTag
	ScopeAbout
	ScopeAuthor
)

// Scope says which recipes a listing draws from. It is resolved once from the
// route and carried through the whole request.
type Scope struct {
	Kind     ScopeKind
	Slug     string
	AuthorID string
}

func HomeScope() Scope {
	return Scope{Kind: ScopeHome}
}

func CategoryScope(slug string) Scope {
	return Scope{Kind: ScopeCategory, Slug: slug}
}

func TagScope(slug string) Scope {
	return Scope{Kind: ScopeTag, Slug: slug}
}

func AboutScope() Scope {
	return Scope{Kind: ScopeAbout}
}

func AuthorScope(userID string) Scope {
	return Scope{Kind: ScopeAuthor, AuthorID: userID}
}

func (s Scope) PageSize() int {
	if s.Kind == ScopeAbout {
		return 3
	}
	return 5
}

func (s Scope) PagePolicy() PagePolicy {
	if s.Kind == ScopeAbout {
		return PageClamp
	}
	return PageStrict
}

// AllowsEmpty is false for category and tag listings, where no recipes means
// the page does not exist.
func (s Scope) AllowsEmpty() bool {
	return s.Kind != ScopeCategory && s.Kind != ScopeTag
}

// Orderable reports whether the order filter applies to the scope.
func (s Scope) Orderable() bool {
	return s.Kind == ScopeHome
}

// EffectiveOrder drops the requested order outside the home page. An
// author's own list is always newest first.
func (s Scope) EffectiveOrder(requested Order) Order {
	switch {
	case s.Orderable():
		return requested
	case s.Kind == ScopeAuthor:
		return OrderNewest
	default:
		return OrderDefault
	}
}

type PagePolicy int

const (
	// PageStrict rejects page values that are not numbers (other than
	// "last") or fall outside the available pages.
	PageStrict PagePolicy = iota
	// PageClamp falls back to the first page for garbage and to the last
	// page for out of range numbers.
	PageClamp
)

type PageInfo struct {
	Number      int  `json:"number"`
	NumPages    int  `json:"num_pages"`
	Count       int  `json:"count"`
	PerPage     int  `json:"per_page"`
	HasNext     bool `json:"has_next"`
	HasPrevious bool `json:"has_previous"`

	query url.Values
}

// Paginate resolves the raw page value against count items.
func Paginate(count, perPage int, raw string, policy PagePolicy) (PageInfo, error) {
	numPages := 1
	if count > 0 {
		numPages = (count + perPage - 1) / perPage
	}

	number, err := resolvePage(raw, numPages, policy)
	if err != nil {
		return PageInfo{}, err
	}

	return PageInfo{
		Number:      number,
		NumPages:    numPages,
		Count:       count,
		PerPage:     perPage,
		HasNext:     number < numPages,
		HasPrevious: number > 1,
	}, nil
}

func resolvePage(raw string, numPages int, policy PagePolicy) (int, error) {
	if raw == "" {
		return 1, nil
	}

	if policy == PageStrict && raw == "last" {
		return numPages, nil
	}

	number, err := strconv.Atoi(raw)
	if err != nil {
		if policy == PageClamp {
			return 1, nil
		}
		return 0, ErrPageNotFound
	}

	if number < 1 || number > numPages {
		if policy == PageClamp {
			return numPages, nil
		}
		return 0, ErrPageNotFound
	}

	return number, nil
}

func (p PageInfo) Offset() int {
	return (p.Number - 1) * p.PerPage
}

func (p PageInfo) Next() int {
	return p.Number + 1
}

func (p PageInfo) Previous() int {
	return p.Number - 1
}

func (p PageInfo) Pages() []int {
	pages := make([]int, p.NumPages)
	for i := range pages {
		pages[i] = i + 1
	}
	return pages
}

// WithQuery keeps extra query parameters, like the order filter, on the page
// links.
func (p PageInfo) WithQuery(query url.Values) PageInfo {
	p.query = query
	return p
}

func (p PageInfo) URL(number int) template.URL {
	q := url.Values{}
	for k, v := range p.query {
		q[k] = v
	}
	q.Set("page", strconv.Itoa(number))
	return template.URL("?" + q.Encode())
}

type OrderOption struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Selected bool   `json:"selected"`
}

type FilterForm struct {
	Order   Order         `json:"order"`
	Options []OrderOption `json:"-"`
}

func NewFilterForm(order Order) *FilterForm {
	options := make([]OrderOption, 0, len(orderLabels))
	for _, l := range orderLabels {
		options = append(options, OrderOption{
			Value:    string(l.order),
			Label:    l.label,
			Selected: l.order == order,
		})
	}
	return &FilterForm{Order: order, Options: options}
}

// ListingTitle is the heading for a scope. Category and tag listings need
// the resolved name or label.
func ListingTitle(scope Scope, name string) string {
	switch scope.Kind {
	case ScopeCategory:
		return "Category - " + name
	case ScopeTag:
		return "Tag: " + name
	case ScopeAbout:
		return "About"
	case ScopeAuthor:
		return "My recipes"
	default:
		return "Home page"
	}
}

// Selection is the sidebar highlight for a scope.
func Selection(scope Scope, categoryID int64) view.Selection {
	switch scope.Kind {
	case ScopeHome:
		return view.SelectAll()
	case ScopeCategory:
		return view.SelectCategory(categoryID)
	default:
		return view.Selection{}
	}
}
