package mcp

import "github.com/mark3labs/mcp-go/mcp"

func languageParam() mcp.ToolOption {
	return mcp.WithString("language",
		mcp.Description("Answer language (defaults to the configured language)"),
		mcp.Enum("English", "Sinhala"),
	)
}

func medicinesParam() mcp.ToolOption {
	return mcp.WithArray("medicines",
		mcp.Required(),
		mcp.Description("Medicine names"),
		mcp.WithStringItems(),
		mcp.MinItems(1),
	)
}

var lookupMedicineTool = mcp.NewTool("lookup_medicine",
	mcp.WithDescription("Describe a medicine available in Sri Lanka: uses, dosage, price range, side effects and food interactions."),
	mcp.WithString("name",
		mcp.Required(),
		mcp.Description("Brand or generic medicine name"),
	),
	languageParam(),
)

var analyzeSymptomsTool = mcp.NewTool("analyze_symptoms",
	mcp.WithDescription("Triage a free-text symptom description into possible conditions, advice and an urgency level."),
	mcp.WithString("symptoms",
		mcp.Required(),
		mcp.Description("Symptoms in the patient's own words"),
	),
	languageParam(),
)

var emergencyAidTool = mcp.NewTool("emergency_aid",
	mcp.WithDescription("First-aid steps for an emergency. Known situations use reviewed content; the ambulance number is always included."),
	mcp.WithString("situation",
		mcp.Required(),
		mcp.Description("Situation label, e.g. Snake Bite or Choking (see list_situations)"),
	),
	languageParam(),
)

var checkInteractionsTool = mcp.NewTool("check_interactions",
	mcp.WithDescription("Check a set of medicines for interactions and grade the risk."),
	medicinesParam(),
	languageParam(),
)

var dosageScheduleTool = mcp.NewTool("dosage_schedule",
	mcp.WithDescription("Arrange medicines into a morning, afternoon, evening and night schedule."),
	medicinesParam(),
	languageParam(),
)

var identifyMedicineTool = mcp.NewTool("identify_medicine",
	mcp.WithDescription("Identify a medicine from a photo of its packaging. Pass either base64 image data or a local file path."),
	mcp.WithString("image",
		mcp.Description("Base64 image data or a data: URI"),
	),
	mcp.WithString("path",
		mcp.Description("Path to a JPEG, PNG or WebP image"),
	),
)

var findPharmaciesTool = mcp.NewTool("find_pharmacies",
	mcp.WithDescription("Find up to three pharmacies near a location."),
	mcp.WithNumber("latitude",
		mcp.Required(),
		mcp.Min(-90),
		mcp.Max(90),
	),
	mcp.WithNumber("longitude",
		mcp.Required(),
		mcp.Min(-180),
		mcp.Max(180),
	),
)

var listSituationsTool = mcp.NewTool("list_situations",
	mcp.WithDescription("List the emergency situations that have reviewed first-aid content."),
)

var searchHistoryTool = mcp.NewTool("search_history",
	mcp.WithDescription("Search earlier advisory answers by meaning."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Natural language search query"),
	),
	mcp.WithString("kind",
		mcp.Description("Restrict to one advisory kind"),
		mcp.Enum("medicine", "symptoms", "emergency", "interactions", "schedule", "identify", "pharmacies"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of results to return (default 5)"),
	),
)
