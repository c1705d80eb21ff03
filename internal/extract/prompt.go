// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"text/template"
)

// extractionPromptTmpl instructs the model to enumerate the distinct
// tactical tasks on one manual page with their definitions, figure
// references, and the page label printed on the page.
var extractionPromptTmpl = template.Must(template.New("extraction").Parse(`You are an expert military doctrine analyst. From the following text, extracted from one page of a military field manual, identify all distinct tactical tasks.

This text is from source page: {{.Label}}.

For each tactical task, provide:
1. Its name (e.g., "SEIZE", "OCCUPY").
2. Its full definition.
3. A list of any explicit figure references (e.g., ["Figure B-1", "Figure B-23"]) mentioned in its definition or closely associated text. If none, use an empty list.
4. The document's internal page number string as it appears on the page or is most relevant to this task (e.g., "B-11", "A-5"). If not clearly discernible for a specific task, use the most prominent page number on the page.

Input Text:
---
{{.Text}}
---

Output the results as a JSON list of objects. Each object in the list should represent a single tactical task and have the following keys:
- "name": The tactical task name.
- "definition": The full definition of the task.
- "figure_references": A list of strings for figure references.
- "document_page_number": The extracted page number string from the document (e.g., "B-11").

If no tactical tasks are found on this page, return an empty JSON list: [].

Example of a single task object:
{
  "name": "TASK NAME IN ALL CAPS",
  "definition": "The full definition of the task as found in the text.",
  "figure_references": ["Figure X-Y", "Figure Z-A"],
  "document_page_number": "B-12"
}
`))

// renderExtractionPrompt executes the extraction prompt template.
func renderExtractionPrompt(text, label string) string {
	var buf bytes.Buffer
	extractionPromptTmpl.Execute(&buf, struct{ Text, Label string }{Text: text, Label: label})
	return buf.String()
}
