package dto

import "proctorx_backend/internals/clients/judge0"

type ExecuteRequest struct {
	SourceCode string `json:"source_code" validate:"required"`
	LanguageID int    `json:"language_id" validate:"required,gt=0"`
	Stdin      string `json:"stdin"`
}

func (r ExecuteRequest) ToJudge() judge0.Request {
	return judge0.Request{SourceCode: r.SourceCode, LanguageID: r.LanguageID, Stdin: r.Stdin}
}
