package gateway

import (
	"fmt"
	"strings"

	"github.com/mediguide-lk/mediguide/internal/advisory"
)

const medicinePromptTemplate = `You are a professional medical assistant.
Medicine Name: %q
Target Language: %q

Provide:
1. Description: Simple overview.
2. Uses: Primary conditions it treats.
3. How to Use: Basic dosage/timing rules.
4. Price Range: Estimated LKR/USD market range.
5. Side Effects: A list of 3-5 common side effects.
6. Food Interactions: Any food or drinks to avoid (e.g., alcohol, dairy).
7. Disclaimer: Safety warning.
Output JSON.`

const emergencyPromptTemplate = `URGENT: Provide immediate first-aid instructions for the following emergency: %q
Target Language: %q
If in Sri Lanka, the emergency contact is ` + advisory.EmergencyNumber + ` (Suwa Seriya).

Provide:
1. immediateActions: A list of 3-5 critical steps to take NOW.
2. thingsToAvoid: A list of dangerous actions to avoid.
3. emergencyContact: The local emergency number (e.g., ` + advisory.EmergencyNumber + `).
4. professionalAdvice: A brief professional summary.
Output JSON.`

const symptomPromptTemplate = `As a diagnostic assistant, analyze these symptoms: %q
Target Language: %q
Provide:
1. possibleConditions: Exactly 3 most likely conditions as a list.
2. advice: Practical steps to take.
3. suggestedMeds: Common OTC medicines for relief.
4. urgency: Low, Medium, or High.
Output JSON.`

const interactionPromptTemplate = `Analyze drug interactions for: %s.
Language: %s.
Provide risk level (Low, Moderate or High), summary, and details.
Output JSON.`

const schedulePromptTemplate = `Create a safe daily dosage schedule for these medicines: %s.
Organize them into Morning, Afternoon, Evening, and Night.
Language: %s.
Notes should include "with food" or "empty stomach" advice.
Output JSON.`

const identifyPrompt = "Identify the medicine name. Return ONLY the name."

const pharmacyPromptTemplate = "Find 3 closest open pharmacies near coordinates (%s, %s). Use Google Maps to verify they are currently in that area."

func medicinePrompt(name string, lang advisory.Language) string {
	return fmt.Sprintf(medicinePromptTemplate, name, lang)
}

func emergencyPrompt(situation string, lang advisory.Language) string {
	return fmt.Sprintf(emergencyPromptTemplate, situation, lang)
}

func symptomPrompt(symptoms string, lang advisory.Language) string {
	return fmt.Sprintf(symptomPromptTemplate, symptoms, lang)
}

func interactionPrompt(medicines []string, lang advisory.Language) string {
	return fmt.Sprintf(interactionPromptTemplate, strings.Join(medicines, ", "), lang)
}

func schedulePrompt(medicines []string, lang advisory.Language) string {
	return fmt.Sprintf(schedulePromptTemplate, strings.Join(medicines, ", "), lang)
}

func pharmacyPrompt(lat, lng float64) string {
	return fmt.Sprintf(pharmacyPromptTemplate, formatCoord(lat), formatCoord(lng))
}
