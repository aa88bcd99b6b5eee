package evaluation

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/fpms/core"
)

var (
	evidenceKindTag  = "evidence_kind"
	evidenceKindText = "must be one of pdf, image, link"

	academicYearTag  = "academic_year"
	academicYearText = "must be consecutive years like 2024-25"
)

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(evidenceKindTag, evidenceKindValidation)
	core.RegisterCustomTranslation(validate, translator, evidenceKindTag, evidenceKindText)

	_ = validate.RegisterValidation(academicYearTag, academicYearValidation)
	core.RegisterCustomTranslation(validate, translator, academicYearTag, academicYearText)
}

func evidenceKindValidation(fl validator.FieldLevel) bool {
	return IsValidEvidenceKind(EvidenceKind(fl.Field().String()))
}

func academicYearValidation(fl validator.FieldLevel) bool {
	return ValidateAcademicYear(fl.Field().String()) == nil
}
