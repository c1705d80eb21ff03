// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyze

import (
	"bytes"
	"text/template"
)

// promptBody is the shared instruction and output-format section of the
// recognition prompt. Spans are character offsets into the input text.
const promptBody = `For each identified potential tactical task, provide:
1. The exact task name as you identify it (e.g., "SEIZE", "OCCUPY").
2. The starting character index of the task mention in the input text.
3. The ending character index (exclusive) of the task mention in the input text.

Input Text:
---
{{.Text}}
---

Output the results as a JSON list of objects. Each object should represent a single recognized task instance and have the following keys:
- "task_name": The recognized tactical task name.
- "start_index": The starting character index of the mention.
- "end_index": The ending character index of the mention.

If no potential tactical tasks are found in the text, return an empty JSON list: [].

Example:
Input Text: "The platoon will SEIZE the bridge and then OCCUPY Hill 405."
Output:
[
  {"task_name": "SEIZE", "start_index": 17, "end_index": 22},
  {"task_name": "OCCUPY", "start_index": 43, "end_index": 49}
]
`

var openPromptTmpl = template.Must(template.New("open").Parse(`You are an expert military doctrine analyst specializing in Named Entity Recognition (NER).
Your task is to identify occurrences of specific military tactical tasks (e.g., "SEIZE", "OCCUPY", "ATTACK BY FIRE", "CONDUCT RECONNAISSANCE") within the provided text.
These tasks are typically verbs or short verb phrases describing a specific military action.

` + promptBody))

var closedPromptTmpl = template.Must(template.New("closed").Parse(`You are an expert military doctrine analyst specializing in Named Entity Recognition (NER).
Your task is to identify occurrences of the following known military tactical tasks within the provided text. Identify ONLY these tasks; do not report any other entities.

Known tactical tasks:
{{range .Names}}- {{.}}
{{end}}
` + promptBody))

// renderOpenPrompt builds the open-vocabulary recognition prompt.
func renderOpenPrompt(text string) string {
	var buf bytes.Buffer
	openPromptTmpl.Execute(&buf, struct{ Text string }{Text: text})
	return buf.String()
}

// renderClosedPrompt builds the prompt constrained to known names.
func renderClosedPrompt(text string, names []string) string {
	var buf bytes.Buffer
	closedPromptTmpl.Execute(&buf, struct {
		Text  string
		Names []string
	}{Text: text, Names: names})
	return buf.String()
}
