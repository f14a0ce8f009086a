package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestDocumentCatalog(t *testing.T) {
	groups := DocumentGroups()
	assert.Len(t, groups, 3)

	total := 0
	for _, g := range groups {
		total += len(g.Types)
	}
	assert.Equal(t, 21, total)

	assert.True(t, DocMOA.IsValid())
	assert.True(t, DocTranscript.IsValid())
	assert.False(t, DocType("passport").IsValid())
	assert.Equal(t, "Memorandum of Agreement", DocMOA.Label())
	assert.Equal(t, "Medical Cert", DocMedicalCert.Label())
}

func TestDocumentGroupsReturnsCopy(t *testing.T) {
	groups := DocumentGroups()
	groups[0].Types[0].Label = "changed"

	assert.Equal(t, "Record File", DocumentGroups()[0].Types[0].Label)
}

func TestTemplateFileName(t *testing.T) {
	assert.Equal(t, "APPLICATION LETTER.docx", DocApplicationLetter.TemplateFileName())
	assert.Equal(t, "MOA.docx", DocMOA.TemplateFileName())
}

func TestProfileCloneIsDeep(t *testing.T) {
	original := StudentProfile{
		Documents: []Document{{
			ID:       uuid.New(),
			DocType:  DocResume,
			Comments: []Comment{{ID: uuid.New(), Content: "first"}},
		}},
	}

	clone := original.Clone()
	clone.Documents[0].Status = DocumentDone
	clone.Documents[0].Comments[0].Content = "edited"

	assert.Empty(t, original.Documents[0].Status)
	assert.Equal(t, "first", original.Documents[0].Comments[0].Content)
	assert.Equal(t, 0, original.DocumentByType(DocResume))
	assert.Equal(t, -1, original.DocumentByID(uuid.New()))
}
