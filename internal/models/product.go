package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProductTranslation porte le nom localisé d'un produit
type ProductTranslation struct {
	Name        string `bson:"name" json:"name"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`
}

// ProductImage est une image du catalogue (la première sert de vignette)
type ProductImage struct {
	URL string `bson:"url" json:"url"`
	Alt string `bson:"alt,omitempty" json:"alt,omitempty"`
}

type Product struct {
	ID           primitive.ObjectID            `bson:"_id,omitempty" json:"id"`
	SKU          string                        `bson:"sku" json:"sku"`
	Translations map[string]ProductTranslation `bson:"translations,omitempty" json:"translations,omitempty"`
	Price        float64                       `bson:"price" json:"price"`
	Stock        int                           `bson:"stock" json:"stock"`
	Images       []ProductImage                `bson:"images,omitempty" json:"images,omitempty"`
	IsActive     bool                          `bson:"is_active" json:"is_active"`
	CreatedAt    time.Time                     `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time                     `bson:"updated_at" json:"updated_at"`
}

// DisplayName retourne le nom affichable d'un produit : espagnol d'abord,
// anglais ensuite, SKU en dernier recours.
func (p Product) DisplayName() string {
	if t, ok := p.Translations["es"]; ok && t.Name != "" {
		return t.Name
	}
	if t, ok := p.Translations["en"]; ok && t.Name != "" {
		return t.Name
	}
	return p.SKU
}

// FirstImageURL retourne l'URL de la première image du produit, ou "" si aucune
func (p Product) FirstImageURL() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0].URL
}
