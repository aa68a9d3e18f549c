package kb

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Field limits.
const (
	MaxDirectoryNameLength = 100
	MaxDescriptionLength   = 500
	MaxFileNameLength      = 255
)

var noSlash = regexp.MustCompile(`^[^/\\]+$`)

func nameRules(maxLen int) []validation.Rule {
	return []validation.Rule{
		validation.Required.Error("name is required"),
		validation.RuneLength(1, maxLen),
		validation.Match(noSlash).Error("name must not contain path separators"),
		validation.NotIn(".", "..").Error("name must not be a relative path element"),
	}
}

// Validate checks a create request.
func (in CreateDirectoryInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, nameRules(MaxDirectoryNameLength)...),
		validation.Field(&in.Description, validation.RuneLength(0, MaxDescriptionLength)),
	)
}

// Validate checks an update request.
func (in UpdateDirectoryInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, nameRules(MaxDirectoryNameLength)...),
		validation.Field(&in.Description, validation.RuneLength(0, MaxDescriptionLength)),
	)
}

// Validate checks upload metadata. The payload itself is checked while it is read.
func (in UploadInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Content, validation.NotNil.Error("content is required")),
		validation.Field(&in.OriginalName, nameRules(MaxFileNameLength)...),
		validation.Field(&in.Description, validation.RuneLength(0, MaxDescriptionLength)),
	)
}

// Validate checks a file metadata edit.
func (in UpdateFileInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.OriginalName,
			validation.RuneLength(0, MaxFileNameLength),
			validation.Match(noSlash).Error("name must not contain path separators"),
		),
		validation.Field(&in.Description, validation.RuneLength(0, MaxDescriptionLength)),
	)
}
