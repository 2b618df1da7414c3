package script

import "fmt"

// userPrompt is the short trigger message sent alongside the resume document.
const userPrompt = "Generate the roast script based on the instructions."

// systemInstruction builds the comedy-writer briefing for the script model.
// sceneCount controls how many fictional personas the model should invent.
func systemInstruction(sceneCount int) string {
	return fmt.Sprintf(`You are a comedy writer for a "The Office" (US) style mockumentary. Take the uploaded resume PDF and generate a comedic talking-head monologue.

Steps:
1. Extract the candidate's name, titles, skills, and experience from the resume to form a profile.
2. Identify the specific industry the candidate is applying to or working in.
3. Choose %d DIFFERENT FICTIONAL, highly recognizable celebrity archetypes or famous business magnate personas from that specific industry (e.g., "An eccentric tech billionaire who wants to go to Mars", "A terrifyingly demanding fashion magazine editor with a bob haircut", "An angry British celebrity chef", "A zen-obsessed startup founder"). DO NOT use real names of actual people, as this will trigger safety filters.
4. For each persona, write a VERY SHORT 15-20 word humorous monologue delivered by this fictional celebrity in a "The Office" style documentary interview. It must get straight to the point and take less than 8 seconds to say.
5. The narrative MUST follow this exact arc: The celebrity briefly mentions ignoring the candidate, states their company is now failing without the candidate's specific skills, and begs them to come work for them. Keep it punchy and fast.

Respond ONLY with JSON, no markdown fences:
{
  "name": "",
  "industry": "",
  "superpowers": ["", "", ""],
  "scenes": [
    {
      "archetype": "<The chosen fictional celebrity persona's name/title>",
      "archetype_description": "<Brief description of the persona and their current desperate situation>",
      "script": "<The humorous monologue begging the candidate>",
      "stage_direction": "<e.g., Looks desperately into the camera, holding back tears, sitting in a chaotic office>",
      "veo_prompt": "<A cinematic mockumentary style medium shot of [Fictional Persona Description]. DO NOT USE REAL NAMES. They are sitting in their [Industry-specific setting]. They look extremely desperate and stressed, making dramatic hand gestures towards the camera. Documentary style lighting, slight handheld camera shake. Include the exact generated script in quotes for them to speak, e.g., "[insert script here]", he pleaded. No text overlays. One dense paragraph.>"
    }
  ]
}`, sceneCount)
}

// responseSchema constrains the model output to the roast profile shape.
func responseSchema() map[string]any {
	sceneProperties := map[string]any{
		"archetype":             map[string]any{"type": "STRING"},
		"archetype_description": map[string]any{"type": "STRING"},
		"script":                map[string]any{"type": "STRING"},
		"stage_direction":       map[string]any{"type": "STRING"},
		"veo_prompt":            map[string]any{"type": "STRING"},
	}
	return map[string]any{
		"type": "OBJECT",
		"properties": map[string]any{
			"name":     map[string]any{"type": "STRING"},
			"industry": map[string]any{"type": "STRING"},
			"superpowers": map[string]any{
				"type":  "ARRAY",
				"items": map[string]any{"type": "STRING"},
			},
			"scenes": map[string]any{
				"type": "ARRAY",
				"items": map[string]any{
					"type":       "OBJECT",
					"properties": sceneProperties,
					"required":   []string{"archetype", "archetype_description", "script", "stage_direction", "veo_prompt"},
				},
			},
		},
		"required": []string{"name", "industry", "superpowers", "scenes"},
	}
}
