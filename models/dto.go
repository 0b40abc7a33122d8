package models

type CreateUploadIn struct {
	Name     string `json:"name" validate:"omitempty,max=100"`
	FileName string `json:"file_name" validate:"required,max=200"`
	Category string `json:"category" validate:"required,category"`
}

type AddVariantIn struct {
	VariantID uint `json:"variant_id" validate:"required"`
}

type ToggleFavouriteIn struct {
	VariantIDs []uint `json:"variant_ids" validate:"required,min=3,max=5"`
}

type ToggleFavouriteOut struct {
	Key       string `json:"key"`
	Favourite bool   `json:"favourite"`
}

type ClothingOut struct {
	ID               uint    `json:"id"`
	Name             string  `json:"name"`
	Category         string  `json:"category"`
	ProcessingStatus string  `json:"processing_status"`
	ErrorMessage     *string `json:"error_message,omitempty"`
	ImageURL         *string `json:"image_url,omitempty"`
	CreatedAt        string  `json:"created_at"`
}

type UploadCreatedOut struct {
	Clothing      ClothingOut `json:"clothing"`
	FileUploadUrl string      `json:"file_upload_url"`
}

type WardrobeListOut struct {
	Tops    []WardrobeItem `json:"tops"`
	Bottoms []WardrobeItem `json:"bottoms"`
	Dresses []WardrobeItem `json:"dresses"`
	Layers  []WardrobeItem `json:"layers"`
	Bags    []WardrobeItem `json:"bags"`
	Shoes   []WardrobeItem `json:"shoes"`
}

// OutfitOut is a generated outfit with its favourite state.
type OutfitOut struct {
	ArchetypeID uint8          `json:"archetypeId"`
	Key         string         `json:"key"`
	Favourite   bool           `json:"favourite"`
	Items       []WardrobeItem `json:"items"`
}
