package gateway

import "github.com/sashabaranov/go-openai/jsonschema"

func stringList() jsonschema.Definition {
	return jsonschema.Definition{Type: jsonschema.Array, Items: &jsonschema.Definition{Type: jsonschema.String}}
}

func str(desc string) jsonschema.Definition {
	return jsonschema.Definition{Type: jsonschema.String, Description: desc}
}

var medicineSchema = jsonschema.Definition{
	Type: jsonschema.Object,
	Properties: map[string]jsonschema.Definition{
		"medicineName":     str("Name of the medicine"),
		"description":      str("Simple overview"),
		"uses":             str("Primary conditions it treats"),
		"howToUse":         str("Basic dosage and timing rules"),
		"priceRange":       str("Estimated LKR/USD market range"),
		"sideEffects":      stringList(),
		"foodInteractions": str("Food or drinks to avoid"),
		"disclaimer":       str("Safety warning"),
	},
	Required: []string{"medicineName", "description", "uses", "howToUse", "priceRange", "sideEffects", "foodInteractions", "disclaimer"},
}

var symptomSchema = jsonschema.Definition{
	Type: jsonschema.Object,
	Properties: map[string]jsonschema.Definition{
		"possibleConditions": stringList(),
		"advice":             str("Practical steps to take"),
		"suggestedMeds":      stringList(),
		"urgency":            {Type: jsonschema.String, Enum: []string{"Low", "Medium", "High"}},
	},
	Required: []string{"possibleConditions", "advice", "suggestedMeds", "urgency"},
}

var emergencySchema = jsonschema.Definition{
	Type: jsonschema.Object,
	Properties: map[string]jsonschema.Definition{
		"situation":          str("The emergency being handled"),
		"immediateActions":   stringList(),
		"thingsToAvoid":      stringList(),
		"emergencyContact":   str("Local emergency number"),
		"professionalAdvice": str("Brief professional summary"),
	},
	Required: []string{"situation", "immediateActions", "thingsToAvoid", "emergencyContact", "professionalAdvice"},
}

var interactionSchema = jsonschema.Definition{
	Type: jsonschema.Object,
	Properties: map[string]jsonschema.Definition{
		"riskLevel": {Type: jsonschema.String, Enum: []string{"Low", "Moderate", "High"}},
		"summary":   str("One-line summary"),
		"details":   str("Explanation of the interactions"),
	},
	Required: []string{"riskLevel", "summary", "details"},
}

var scheduleSchema = jsonschema.Definition{
	Type: jsonschema.Object,
	Properties: map[string]jsonschema.Definition{
		"morning":   stringList(),
		"afternoon": stringList(),
		"evening":   stringList(),
		"night":     stringList(),
		"notes":     str("With food or empty stomach advice"),
	},
	Required: []string{"morning", "afternoon", "evening", "night", "notes"},
}
