package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// BlockType discriminates the kind of a content block.
type BlockType string

const (
	BlockText  BlockType = "text"
	BlockImage BlockType = "image"
	BlockVideo BlockType = "video"
)

var ErrContentNotFound = errors.New("content not found")

// Valid reports whether t is one of the recognized block types.
func (t BlockType) Valid() bool {
	switch t {
	case BlockText, BlockImage, BlockVideo:
		return true
	}
	return false
}

// HasAsset reports whether blocks of this type reference an object in storage.
func (t BlockType) HasAsset() bool {
	return t == BlockImage || t == BlockVideo
}

// Block is one ordered unit of a Content document.
type Block struct {
	Type     BlockType      `json:"type" bson:"type"`
	Value    string         `json:"value" bson:"value"`
	Caption  string         `json:"caption,omitempty" bson:"caption,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty" bson:"metadata,omitempty"`
}

// UserRef is the denormalized view of a user referenced by a content document.
type UserRef struct {
	ID       string `json:"_id"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

// Content is a titled, ordered collection of blocks.
type Content struct {
	ID          string    `json:"_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Slug        string    `json:"slug,omitempty"`
	Blocks      []Block   `json:"blocks"`
	CreatedBy   *UserRef  `json:"createdBy,omitempty"`
	UpdatedBy   *UserRef  `json:"updatedBy,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ValidateBlocks checks that blocks is non-empty and that every block has a
// recognized type and a value.
func ValidateBlocks(blocks []Block) error {
	if len(blocks) == 0 {
		return fmt.Errorf("%w: blocks must not be empty", ErrValidation)
	}
	for i, b := range blocks {
		if !b.Type.Valid() {
			return fmt.Errorf("%w: blocks[%d].type %q must be one of: text image video", ErrValidation, i, b.Type)
		}
		if strings.TrimSpace(b.Value) == "" {
			return fmt.Errorf("%w: blocks[%d].value is required", ErrValidation, i)
		}
	}
	return nil
}

// StoredObject is a reference to an object written to object storage.
type StoredObject struct {
	Key string `json:"key"`
	URL string `json:"url"`
}
