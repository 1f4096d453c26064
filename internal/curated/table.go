package curated

import "github.com/mediguide-lk/mediguide/internal/advisory"

// imageBase is where the situation illustrations are served from.
const imageBase = "/assets/"

var table = map[Situation]record{
	SnakeBite: {
		image: "snake_bite.png",
		labels: map[advisory.Language]string{
			advisory.English: "Snake Bite",
			advisory.Sinhala: "සර්ප දෂ්ඨනය",
		},
		content: map[advisory.Language]Entry{
			advisory.English: {
				Actions: []string{
					"Keep the victim calm and still",
					"Immobilize the bitten limb",
					"Do not apply a tourniquet or cut the wound",
					"Seek emergency medical help immediately",
				},
				Avoid: []string{
					"Trying to suck out the venom",
					"Applying ice or heat",
					"Giving the victim alcohol or caffeine",
				},
				Tip: "Try to remember the appearance of the snake if possible.",
			},
			advisory.Sinhala: {
				Actions: []string{
					"සන්සුන්ව සිටින්න සහ අවයවය නොසොල්වා තබන්න",
					"තුවාලය වටා තදින් බැඳීමෙන් වළකින්න",
					"වහාම රෝහල් ගත වෙන්න",
				},
				Avoid: []string{
					"තුවාලය කැපීම හෝ ලේ උරා බීම",
					"අයිස් තැබීම",
					"මත්පැන් පානය කිරීම",
				},
				Tip: "සර්පයාගේ පෙනුම මතක තබා ගැනීමට උත්සාහ කරන්න",
			},
		},
	},
	DogBite: {
		image: "dog_bite.png",
		labels: map[advisory.Language]string{
			advisory.English: "Dog Bite",
			advisory.Sinhala: "බල්ලා දෂ්ඨ කිරීම",
		},
		content: map[advisory.Language]Entry{
			advisory.English: {
				Actions: []string{
					"Wash the wound thoroughly with soap and water",
					"Apply pressure with a clean cloth to stop bleeding",
					"Apply antibiotic ointment and cover with a sterile bandage",
				},
				Avoid: []string{
					"Ignoring even minor bites",
					"Delaying medical evaluation for infection risk",
				},
				Tip: "Check the vaccination status of the dog if known.",
			},
			advisory.Sinhala: {
				Actions: []string{
					"සබන් සහ ජලය යොදා තුවාලය හොඳින් සෝදන්න",
					"පිරිසිදු රෙදි කැබැල්ලකින් තද කර රුධිර වහනය නතර කරන්න",
					"ප්‍රතිජීවක ආලේපනයක් ගල්වන්න",
				},
				Avoid: []string{
					"තුවාලය නොසලකා හැරීම",
					"එන්නත් ලබා ගැනීම ප්‍රමාද කිරීම",
				},
				Tip: "සුනඛයාගේ අයිතිකරු පිළිබඳව විමසන්න",
			},
		},
	},
	Choking: {
		image: "choking.png",
		labels: map[advisory.Language]string{
			advisory.English: "Choking",
			advisory.Sinhala: "හුස්ම හිරවීම",
		},
		content: map[advisory.Language]Entry{
			advisory.English: {
				Actions: []string{
					"Give 5 back blows between the shoulder blades",
					"Perform 5 abdominal thrusts (Heimlich maneuver)",
					"Alternate between 5 blows and 5 thrusts until the blockage is cleared",
				},
				Avoid: []string{
					"Interfering if the person is coughing forcefully",
					"Blind finger sweeps in the mouth",
				},
				Tip: "If the person becomes unconscious, begin CPR immediately.",
			},
			advisory.Sinhala: {
				Actions: []string{
					"පිට මැදට පහර 5ක් දෙන්න",
					"උදරයට තෙරපුම (Heimlich Maneuver) 5ක් දෙන්න",
					"වස්තුව පිටතට එනතුරු මෙය නැවත කරන්න",
				},
				Avoid: []string{
					"පුද්ගලයා කහින විට බාධා කිරීම",
					"කට තුලට ඇඟිලි දමා සෙවීමට උත්සාහ කිරීම",
				},
				Tip: "පුද්ගලයා සිහිසුන් වුවහොත් CPR ආරම්භ කරන්න",
			},
		},
	},
	SevereBleeding: {
		image: "bleeding.png",
		labels: map[advisory.Language]string{
			advisory.English: "Severe Bleeding",
			advisory.Sinhala: "දැඩි රුධිර වහනය",
		},
		content: map[advisory.Language]Entry{
			advisory.English: {
				Actions: []string{
					"Apply direct pressure to the wound with a clean cloth",
					"Elevate the injured area above heart level",
					"Apply a sterile bandage once bleeding is controlled",
				},
				Avoid: []string{
					"Removing soaked bandages (layer more on top)",
					"Applying a tourniquet unless bleeding is life-threatening",
				},
				Tip: "If bleeding is arterial (spurting), use dynamic pressure.",
			},
			advisory.Sinhala: {
				Actions: []string{
					"තුවාලය මත සෘජුවම තද කරන්න",
					"තුවාලය හදවතේ මට්ටමට වඩා ඉහලින් තබන්න",
					"පිරිසිදු වෙළුම් පටියක් භාවිතා කරන්න",
				},
				Avoid: []string{
					"බැඳ ඇති රෙදි ඉවත් කිරීම",
					"තුවාලය ඇතුලට අමුද්‍රව්‍ය දැමීම",
				},
				Tip: "රුධිර වහනය අධික නම් වහාම 1990 අමතන්න",
			},
		},
	},
	Poisoning: {
		image: "poisoning.png",
		labels: map[advisory.Language]string{
			advisory.English: "Poisoning",
			advisory.Sinhala: "විෂ වීම්",
		},
		content: map[advisory.Language]Entry{
			advisory.English: {
				Actions: []string{
					"Identify the substance and the amount taken",
					"Keep the container for medical reference",
					"Call emergency services or Poison Control immediately",
				},
				Avoid: []string{
					"Inducing vomiting unless told by a professional",
					"Giving ipecac syrup or charcoal",
				},
				Tip: "Stay with the person and monitor breathing until help arrives.",
			},
			advisory.Sinhala: {
				Actions: []string{
					"විෂ වූ ද්‍රව්‍යය හඳුනා ගන්න",
					"බහාලුම ළඟ තබා ගන්න",
					"වහාම 1990 හෝ විෂ තොරතුරු මධ්‍යස්ථානය අමතන්න",
				},
				Avoid: []string{
					"වමනය කිරීමට උත්සහ කිරීම (විශේෂ උපදෙස් නැතිව)",
					"කිරි හෝ ජලය ලබා දීම",
				},
				Tip: "පුද්ගලයාගේ සිහිය පරීක්ෂා කරමින් සිටින්න",
			},
		},
	},
	HeartAttack: {
		image: "heart_attack.png",
		labels: map[advisory.Language]string{
			advisory.English: "Heart Attack",
			advisory.Sinhala: "හෘදයාබාධ ලක්ෂණ",
		},
		content: map[advisory.Language]Entry{
			advisory.English: {
				Actions: []string{
					"Have the person sit down and rest",
					"Loosen tight clothing",
					"Ask if they take chest pain medication (like nitroglycerin)",
				},
				Avoid: []string{
					"Letting the person drive themselves to the hospital",
					"Ignoring early warning signs like indigestion",
				},
				Tip: "Begin CPR if the person becomes unresponsive or stops breathing.",
			},
			advisory.Sinhala: {
				Actions: []string{
					"පුද්ගලයා සුව පහසු ලෙස වාඩි කරවන්න",
					"සිරුරු ඇඳුම් ලිහිල් කරන්න",
					"ඇස්පිරින් ලබා දීමට (වෛද්‍ය උපදෙස් මත) උත්සාහ කරන්න",
				},
				Avoid: []string{
					"පුද්ගලයාට තනිවම රිය පැදවීමට ඉඩ දීම",
					"රෝග ලක්ෂණ නොසලකා හැරීම",
				},
				Tip: "පුද්ගලයා සිහිසුන් වුවහොත් වහාම CPR ආරම්භ කරන්න",
			},
		},
	},
}
