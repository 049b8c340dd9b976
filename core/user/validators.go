package user

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/preceptor/core"
)

var (
	userLabelTag  = "userlabel"
	userLabelText = "Invalid label"

	// SearchMinSimilarity is the similarity ratio from which a name matches a search term.
	SearchMinSimilarity = .6
)

func init() {
	_ = core.Validate.RegisterValidation(userLabelTag, userLabelValidation)
	core.RegisterCustomTranslation(userLabelTag, userLabelText)
}

// LabelForm is the payload of a label assignment.
type LabelForm struct {
	UserID string `json:"userId" validate:"required"`
	Label  string `json:"label" validate:"required,userlabel"`
}

func (lf LabelForm) Validate() error { return core.ValidateStruct(lf) }

// userLabelValidation accepts the known roles only.
func userLabelValidation(fl validator.FieldLevel) bool {
	label := fl.Field().String()
	for _, r := range core.AllRoles {
		if r == label {
			return true
		}
	}
	return false
}

// Similarity is the ratio of characters shared by a and b, case-insensitively.
func Similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	a, b = strings.ToLower(a), strings.ToLower(b)
	return difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, "")).QuickRatio()
}

// Matches reports whether u is found by the search term: a substring of the name or email, or
// a name similar enough to the term.
func Matches(u User, term string) bool {
	term = strings.ToLower(core.CleanString(term))
	if term == "" {
		return false
	}
	if strings.Contains(strings.ToLower(u.Name), term) || strings.Contains(strings.ToLower(u.Email), term) {
		return true
	}
	if Similarity(u.Name, term) >= SearchMinSimilarity {
		return true
	}
	for _, word := range strings.Fields(u.Name) {
		if Similarity(word, term) >= SearchMinSimilarity {
			return true
		}
	}
	return false
}
