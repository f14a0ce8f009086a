package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type uploadRequest struct {
	DocType string `validate:"required,doctype"`
}

type statusRequest struct {
	Status string `validate:"required,docstatus"`
	Filter string `validate:"overallstatus"`
}

func TestDocTypeRule(t *testing.T) {
	v := New()
	assert.NoError(t, v.Struct(uploadRequest{DocType: "moa"}))
	assert.NoError(t, v.Struct(uploadRequest{DocType: "clearance"}), "legacy types are accepted")
	assert.Error(t, v.Struct(uploadRequest{DocType: "passport"}))
	assert.Error(t, v.Struct(uploadRequest{}))
}

func TestStatusRules(t *testing.T) {
	v := New()
	assert.NoError(t, v.Struct(statusRequest{Status: "For Revision"}))
	assert.NoError(t, v.Struct(statusRequest{Status: "Done", Filter: "Revision Needed"}))
	assert.Error(t, v.Struct(statusRequest{Status: "Approved"}))
	assert.Error(t, v.Struct(statusRequest{Status: "Done", Filter: "Archived"}))
}

func TestMIMEAllowLists(t *testing.T) {
	assert.True(t, DocumentMIMETypes["application/pdf"])
	assert.False(t, DocumentMIMETypes["application/zip"])
	assert.True(t, ImageMIMETypes["image/png"])
	assert.False(t, ImageMIMETypes["application/pdf"])
}
