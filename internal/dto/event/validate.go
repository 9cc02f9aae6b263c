package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/pion/webrtc/v4"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		// 错误信息使用 json 字段名
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		validate.RegisterStructValidation(validateOffer, CallOfferPayload{})
		validate.RegisterStructValidation(validateAnswer, CallAnswerPayload{})
		validate.RegisterStructValidation(validateCandidate, CallIceCandidatePayload{})
	})
	return validate
}

func validateOffer(sl validator.StructLevel) {
	p := sl.Current().Interface().(CallOfferPayload)
	if p.Offer != nil && (p.Offer.Type != webrtc.SDPTypeOffer || strings.TrimSpace(p.Offer.SDP) == "") {
		sl.ReportError(p.Offer, "offer", "Offer", "sdpoffer", "")
	}
}

func validateAnswer(sl validator.StructLevel) {
	p := sl.Current().Interface().(CallAnswerPayload)
	if p.Answer != nil && (p.Answer.Type != webrtc.SDPTypeAnswer || strings.TrimSpace(p.Answer.SDP) == "") {
		sl.ReportError(p.Answer, "answer", "Answer", "sdpanswer", "")
	}
}

func validateCandidate(sl validator.StructLevel) {
	p := sl.Current().Interface().(CallIceCandidatePayload)
	if p.Candidate != nil && strings.TrimSpace(p.Candidate.Candidate) == "" {
		sl.ReportError(p.Candidate, "candidate", "Candidate", "icecandidate", "")
	}
}

// Decode 解析并校验 data
func Decode(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return errors.New("missing data")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("malformed data: %w", err)
	}
	if err := getValidator().Struct(v); err != nil {
		return describe(err)
	}
	return nil
}

// describe 将校验错误压缩为一句客户端可读的信息
func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", fe.Field())
	case "oneof":
		return fmt.Errorf("%s must be one of: %s", fe.Field(), fe.Param())
	case "sdpoffer", "sdpanswer":
		return fmt.Errorf("%s must be a session description of type %s", fe.Field(), fe.Field())
	case "icecandidate":
		return errors.New("candidate must not be empty")
	default:
		return fmt.Errorf("%s is invalid", fe.Field())
	}
}
