package catalog

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// ErrInvalidForm marks admin input that failed validation.
var ErrInvalidForm = errors.New("catalog: invalid product form")

// ProductForm is the raw admin form as typed by the user.
type ProductForm struct {
	Name               string `validate:"required,max=200"`
	Price              string `validate:"omitempty,numeric"`
	ImageURL           string `validate:"omitempty,url"`
	MarketplaceLink    string `validate:"omitempty,url"`
	Description        string `validate:"max=5000"`
	DiscountActive     bool
	DiscountPercentage string `validate:"omitempty,numeric"`
}

// ProductInput is the normalized record sent to the backend. Optional text
// fields are always present, as empty strings when left blank.
type ProductInput struct {
	Name            string    `json:"name"`
	Price           float64   `json:"price"`
	ImageURL        string    `json:"image_url"`
	Description     string    `json:"description"`
	MarketplaceLink string    `json:"marketplace_link"`
	Discount        *Discount `json:"discount,omitempty"`
}

// FormErrors maps field names to messages.
type FormErrors map[string]string

// FormFromProduct pre-fills an edit form.
func FormFromProduct(p Product) ProductForm {
	form := ProductForm{
		Name:            p.Name,
		Price:           decimal.NewFromFloat(p.Price).String(),
		ImageURL:        p.ImageURL,
		MarketplaceLink: p.MarketplaceLink,
		Description:     p.Description,
	}
	if p.Discount != nil {
		form.DiscountActive = p.Discount.Active
		form.DiscountPercentage = decimal.NewFromFloat(p.Discount.Percentage).String()
	}
	return form
}

// Validate checks the form and returns per-field messages.
func (f ProductForm) Validate(v *validator.Validate) FormErrors {
	errs := FormErrors{}
	if err := v.Struct(f); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fieldErr := range fieldErrs {
				errs[fieldErr.Field()] = fieldMessage(fieldErr.Tag())
			}
		} else {
			errs["general"] = err.Error()
		}
	}
	if _, ok := errs["Price"]; !ok {
		if d := ParseBound(f.Price); d != nil && d.IsNegative() {
			errs["Price"] = "Harga tidak boleh negatif"
		}
	}
	if _, ok := errs["DiscountPercentage"]; !ok {
		if d := ParseBound(f.DiscountPercentage); d != nil && (d.IsNegative() || d.GreaterThan(hundred)) {
			errs["DiscountPercentage"] = "Diskon harus antara 0 dan 100"
		}
	}
	return errs
}

func fieldMessage(tag string) string {
	switch tag {
	case "required":
		return "Wajib diisi"
	case "numeric":
		return "Harus berupa angka"
	case "url":
		return "URL tidak valid"
	case "max":
		return "Terlalu panjang"
	default:
		return "Isian tidak valid"
	}
}

// Normalize coerces the form into the backend record. A blank price becomes 0.
func (f ProductForm) Normalize() (ProductInput, error) {
	input := ProductInput{
		Name:            strings.TrimSpace(f.Name),
		ImageURL:        strings.TrimSpace(f.ImageURL),
		Description:     strings.TrimSpace(f.Description),
		MarketplaceLink: strings.TrimSpace(f.MarketplaceLink),
	}
	price, err := coerceNumber(f.Price)
	if err != nil {
		return ProductInput{}, err
	}
	input.Price = price
	if strings.TrimSpace(f.DiscountPercentage) != "" || f.DiscountActive {
		pct, err := coerceNumber(f.DiscountPercentage)
		if err != nil {
			return ProductInput{}, err
		}
		input.Discount = &Discount{Active: f.DiscountActive, Percentage: pct}
	}
	return input, nil
}

func coerceNumber(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, ErrInvalidForm
	}
	return d.InexactFloat64(), nil
}
