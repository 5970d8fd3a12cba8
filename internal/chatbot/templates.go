package chatbot

import (
	"fmt"
	"strings"

	"github.com/civicdesk/grievance-service/internal/domain"
)

const dateLayout = "02/01/2006"

// menuDepartments is the numbered department list offered in the chat.
var menuDepartments = []domain.Department{
	domain.DepartmentWaterSupply,
	domain.DepartmentSanitation,
	domain.DepartmentRoad,
	domain.DepartmentElectricity,
	domain.DepartmentHealth,
	domain.DepartmentEducation,
	domain.DepartmentOthers,
}

func menuMessage(profileName string) string {
	greeting := "Hello!"
	if name := strings.TrimSpace(profileName); name != "" {
		greeting = fmt.Sprintf("Hello %s!", name)
	}
	return greeting + ` 🙏

Welcome to Grievance Redressal System
शिकायत निवारण प्रणाली में आपका स्वागत है

Please select an option:
कृपया एक विकल्प चुनें:

1️⃣ Submit New Complaint
   नई शिकायत दर्ज करें

2️⃣ Track Complaint Status
   शिकायत की स्थिति देखें

Reply with the number or type your choice.
संख्या के साथ उत्तर दें या अपनी पसंद टाइप करें।

Type "menu" anytime to see options again.`
}

const startComplaintMessage = `📝 Let's submit your complaint
आइए आपकी शिकायत दर्ज करें

Please provide the following information:

Step 1/7: Your Full Name
चरण 1/7: आपका पूरा नाम

Please enter your name:`

func departmentMenu() string {
	var b strings.Builder
	for i, d := range menuDepartments {
		fmt.Fprintf(&b, "%d. %s\n", i+1, d)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// stepPrompt asks for the value of step.
func stepPrompt(step domain.Step) string {
	switch step {
	case domain.StepName:
		return "Step 1/7: Your Full Name\nचरण 1/7: आपका पूरा नाम\n\nPlease enter your name:"
	case domain.StepPhone:
		return "Step 2/7: Phone Number\nचरण 2/7: फ़ोन नंबर\n\nPlease enter your 10-digit phone number:"
	case domain.StepWard:
		return "Step 3/7: Ward Selection\nचरण 3/7: वार्ड चुनें\n\nPlease select your ward (1-10):\nअपना वार्ड चुनें (1-10):\n\nExample: Ward 1, Ward 2, etc."
	case domain.StepDepartment:
		return "Step 4/7: Department\nचरण 4/7: विभाग\n\nSelect department:\n" + departmentMenu() + "\n\nReply with number or department name:"
	case domain.StepType:
		return "Step 5/7: Complaint Type\nचरण 5/7: शिकायत का प्रकार\n\nBriefly describe the type of issue:\nसमस्या के प्रकार का संक्षिप्त वर्णन करें:\n\nExample: Water leakage, Road repair, etc."
	case domain.StepAddress:
		return "Step 6/7: Address\nचरण 6/7: पता\n\nPlease provide the complete address where the issue is located:\nकृपया उस पूरे पते को बताएं जहां समस्या है:"
	case domain.StepDescription:
		return "Step 7/7: Description\nचरण 7/7: विवरण\n\nPlease describe your complaint in detail:\nकृपया अपनी शिकायत का विस्तृत विवरण दें:"
	}
	return ""
}

// stepRetry explains why the value for step was rejected.
func stepRetry(step domain.Step) string {
	switch step {
	case domain.StepName:
		return "Please enter your full name (at least 2 characters):\nकृपया अपना पूरा नाम दर्ज करें:"
	case domain.StepPhone:
		return "Please enter a valid 10-digit phone number:\nकृपया एक वैध 10-अंकीय फ़ोन नंबर दर्ज करें:"
	case domain.StepWard:
		return `Please enter a valid ward (1-10) or "Ward 1", "Ward 2", etc.` + "\nकृपया एक वैध वार्ड (1-10) दर्ज करें:"
	case domain.StepDepartment:
		return "Please reply with a department number (1-7) or name:\nकृपया विभाग संख्या (1-7) या नाम दर्ज करें:"
	case domain.StepType:
		return "Please describe the type of issue (at least 3 characters):\nकृपया समस्या का प्रकार बताएं:"
	case domain.StepAddress:
		return "Please provide the complete address (at least 5 characters):\nकृपया पूरा पता बताएं:"
	case domain.StepDescription:
		return "Please describe your complaint in more detail (at least 10 characters):\nकृपया अपनी शिकायत का विस्तृत विवरण दें:"
	}
	return ""
}

func successMessage(ticketID string, draft domain.ComplaintDraft, estimated string) string {
	department := string(draft.Department)
	if draft.DepartmentText != "" {
		department = fmt.Sprintf("%s (%s)", draft.Department, draft.DepartmentText)
	}
	return fmt.Sprintf(`✅ Complaint Submitted Successfully!
शिकायत सफलतापूर्वक दर्ज की गई!

📋 Your Ticket ID: *%s*
आपकी टिकट आईडी: *%s*

📝 Summary:
📞 Phone: %s
🏢 Department: %s
🏘️ Ward: %s
📍 Address: %s
📄 Type: %s

⏱️ Status: Complaint Received
स्थिति: शिकायत प्राप्त

🕐 Estimated Resolution: %s
अनुमानित समाधान: %s

💡 Save this Ticket ID to track your complaint status.
अपनी शिकायत की स्थिति ट्रैक करने के लिए इस टिकट आईडी को सेव करें।

Type "menu" for more options.`, ticketID, ticketID, draft.Phone, department, draft.Ward, draft.Address, draft.Type, estimated, estimated)
}

const submitFailedMessage = "❌ Error submitting complaint. Please try again or contact support.\nशिकायत दर्ज करने में त्रुटि। कृपया पुनः प्रयास करें।\n\nType \"menu\" to start over."

const startTrackingMessage = `🔍 Track Your Complaint
अपनी शिकायत ट्रैक करें

Please enter your Ticket ID:
कृपया अपनी टिकट आईडी दर्ज करें:

Example: RHT123456ABCD
उदाहरण: RHT123456ABCD`

func notFoundMessage(ticketID string) string {
	return fmt.Sprintf("❌ Complaint not found with Ticket ID: %s\nटिकट आईडी के साथ शिकायत नहीं मिली: %s\n\nPlease check your Ticket ID and try again.\nType \"menu\" for more options.", ticketID, ticketID)
}

const trackFailedMessage = "❌ Error retrieving complaint details. Please try again.\nशिकायत विवरण प्राप्त करने में त्रुटि।\n\nType \"menu\" to start over."

func statusMessage(c *domain.Complaint) string {
	label := c.Status.NoticeLabel()
	submitted := c.Timestamps.Submitted.Format(dateLayout)
	return fmt.Sprintf(`📋 Complaint Status / शिकायत की स्थिति

🎫 Ticket ID: *%s*
👤 Name: %s
🏢 Department: %s
🏘️ Ward: %s
📄 Type: %s

📊 Current Status: *%s*
वर्तमान स्थिति: *%s*

📅 Submitted: %s
दर्ज किया गया: %s

⏱️ Estimated Resolution: %s
अनुमानित समाधान: %s

📍 Address: %s
📝 Description: %s

Type "menu" for more options.`,
		c.TicketID, c.Citizen.Name, c.Details.Department, c.Details.Ward, c.Details.Type,
		label, label, submitted, submitted,
		c.EstimatedResolution, c.EstimatedResolution,
		c.Details.Address, c.Details.Description)
}
