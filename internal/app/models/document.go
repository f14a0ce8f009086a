package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// DocType identifies one required OJT document
type DocType string

// Pre-deployment documents
const (
	DocRecordFile         DocType = "record_file"
	DocApplicationLetter  DocType = "application_letter"
	DocMedicalCertificate DocType = "medical_certificate"
	DocCertificationUnits DocType = "certification_units"
	DocResume             DocType = "resume"
	DocConsentForm        DocType = "consent_form"
	DocEndorsementLetter  DocType = "endorsement_letter"
	DocReleaseForm        DocType = "release_form"
)

// Legal documents
const (
	DocInternshipAgreement DocType = "internship_agreement"
	DocMOA                 DocType = "moa"
	DocWaiver              DocType = "waiver"
)

// Post-OJT documents
const (
	DocEvaluationForm     DocType = "evaluation_form"
	DocCompletionCert     DocType = "completion_cert"
	DocNarrativeReport    DocType = "narrative_report"
	DocTimeRecord         DocType = "time_record"
	DocTimeframe          DocType = "timeframe"
	DocWeeklyReports      DocType = "weekly_reports"
	DocStudentFeedback    DocType = "student_feedback"
	DocSupervisorFeedback DocType = "supervisor_feedback"
	DocSelfEvaluation     DocType = "self_evaluation"
	DocStudentEvaluation  DocType = "student_evaluation"
)

// Older document types still accepted on upload but not listed in any group
const (
	DocPsychologicalTest DocType = "psychological_test"
	DocInternshipWaiver  DocType = "internship_waiver"
	DocGuardianConsent   DocType = "guardian_consent"
	DocTranscript        DocType = "transcript"
	DocMedicalCert       DocType = "medical_cert"
	DocInsurance         DocType = "insurance"
	DocClearance         DocType = "clearance"
)

// DocumentGroup is a section of the required documents checklist
type DocumentGroup struct {
	Key   string        `json:"key"`
	Title string        `json:"title"`
	Types []DocTypeInfo `json:"types"`
}

// DocTypeInfo pairs a document type with its display label
type DocTypeInfo struct {
	Value DocType `json:"value"`
	Label string  `json:"label"`
}

var documentGroups = []DocumentGroup{
	{
		Key:   "preDeployment",
		Title: "Pre-Deployment Requirements",
		Types: []DocTypeInfo{
			{DocRecordFile, "Record File"},
			{DocApplicationLetter, "Application Letter"},
			{DocMedicalCertificate, "Medical Certificate"},
			{DocCertificationUnits, "Certification of Units"},
			{DocResume, "Resume"},
			{DocConsentForm, "Consent Form"},
			{DocEndorsementLetter, "Endorsement Letter"},
			{DocReleaseForm, "Release Form"},
		},
	},
	{
		Key:   "legal",
		Title: "Legal Documents",
		Types: []DocTypeInfo{
			{DocInternshipAgreement, "Internship Agreement"},
			{DocMOA, "Memorandum of Agreement"},
			{DocWaiver, "Waiver"},
		},
	},
	{
		Key:   "postOjt",
		Title: "Post-OJT Requirements",
		Types: []DocTypeInfo{
			{DocEvaluationForm, "Evaluation Form"},
			{DocCompletionCert, "Certificate of Completion"},
			{DocNarrativeReport, "Narrative Report"},
			{DocTimeRecord, "Daily Time Record"},
			{DocTimeframe, "Timeframe"},
			{DocWeeklyReports, "Weekly Reports"},
			{DocStudentFeedback, "Student Feedback"},
			{DocSupervisorFeedback, "Supervisor Feedback"},
			{DocSelfEvaluation, "Self Evaluation"},
			{DocStudentEvaluation, "Student Evaluation"},
		},
	},
}

var legacyDocTypes = []DocType{
	DocPsychologicalTest, DocInternshipWaiver, DocGuardianConsent,
	DocTranscript, DocMedicalCert, DocInsurance, DocClearance,
}

var docLabels = func() map[DocType]string {
	labels := make(map[DocType]string)
	for _, g := range documentGroups {
		for _, t := range g.Types {
			labels[t.Value] = t.Label
		}
	}
	for _, t := range legacyDocTypes {
		labels[t] = humanize(string(t))
	}
	return labels
}()

// DocumentGroups returns a copy of the grouped document catalog
func DocumentGroups() []DocumentGroup {
	groups := make([]DocumentGroup, len(documentGroups))
	for i, g := range documentGroups {
		groups[i] = DocumentGroup{Key: g.Key, Title: g.Title, Types: append([]DocTypeInfo(nil), g.Types...)}
	}
	return groups
}

// IsValid reports whether t belongs to the catalog
func (t DocType) IsValid() bool {
	_, ok := docLabels[t]
	return ok
}

// Label returns the display name of the document type
func (t DocType) Label() string {
	if l, ok := docLabels[t]; ok {
		return l
	}
	return humanize(string(t))
}

// TemplateFileName is the download name of the blank template, e.g. "APPLICATION LETTER.docx"
func (t DocType) TemplateFileName() string {
	return strings.ToUpper(strings.ReplaceAll(string(t), "_", " ")) + ".docx"
}

func humanize(s string) string {
	words := strings.Fields(strings.ReplaceAll(s, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// DocumentStatus is the review state of a single document
type DocumentStatus string

const (
	DocumentSubmitted   DocumentStatus = "Submitted"
	DocumentChecked     DocumentStatus = "Checked"
	DocumentForRevision DocumentStatus = "For Revision"
	DocumentDone        DocumentStatus = "Done"
)

// IsValid reports whether s is a known document status
func (s DocumentStatus) IsValid() bool {
	switch s {
	case DocumentSubmitted, DocumentChecked, DocumentForRevision, DocumentDone:
		return true
	}
	return false
}

// Comment is one entry of a discussion thread
type Comment struct {
	ID        uuid.UUID `json:"id"`
	AuthorID  int64     `json:"authorId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Document is one uploaded artifact and its review state
type Document struct {
	ID         uuid.UUID      `json:"id"`
	DocType    DocType        `json:"docType"`
	FileName   string         `json:"fileName"`
	FileURL    string         `json:"fileUrl"`
	StorageKey string         `json:"storageKey"`
	Status     DocumentStatus `json:"status"`
	UploadDate time.Time      `json:"uploadDate"`
	Comments   []Comment      `json:"comments"`
}
