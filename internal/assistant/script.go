package assistant

import "strings"

// Greeting opens every scripted conversation.
const Greeting = "Hello! I'm DudhBot, your AI assistant. Ask me about milk prices, nearby sellers, or help placing orders. How can I help you today?"

// QuickReplies are the canned prompts the storefront offers.
var QuickReplies = []string{
	"What's the price of buffalo milk nearby?",
	"Show me organic milk sellers",
	"Help me place an order",
	"Which seller has best ratings?",
}

type scriptRule struct {
	match func(string) bool
	reply string
}

func allOf(words ...string) func(string) bool {
	return func(msg string) bool {
		for _, w := range words {
			if !strings.Contains(msg, w) {
				return false
			}
		}
		return true
	}
}

func anyOf(words ...string) func(string) bool {
	return func(msg string) bool {
		for _, w := range words {
			if strings.Contains(msg, w) {
				return true
			}
		}
		return false
	}
}

func both(a, b func(string) bool) func(string) bool {
	return func(msg string) bool { return a(msg) && b(msg) }
}

// Rules are ordered; the first match wins.
var scriptRules = []scriptRule{
	{
		match: allOf("price", "buffalo"),
		reply: "Buffalo milk prices in your area range from ₹65-75 per liter. Green Valley Farm offers it at ₹70/L with excellent IoT quality ratings. Would you like me to show you more options?",
	},
	{
		match: both(allOf("price"), anyOf("cow", "milk")),
		reply: "Cow milk prices vary from ₹52-65 per liter depending on the farm. Our AI predicts a slight increase next week due to seasonal demand. Order now to lock in current prices!",
	},
	{
		match: anyOf("organic"),
		reply: "I found 3 organic milk sellers near you:\n• Green Valley Farm (2.5 km) - ₹65/L\n• Sundar A2 Farms (5 km) - ₹85/L\n• Pure Nature Dairy (7 km) - ₹72/L\n\nAll are blockchain-verified for authenticity! 🌿",
	},
	{
		match: anyOf("order", "buy"),
		reply: "I can help you order! Please tell me:\n1. Which milk type (cow/buffalo/A2)?\n2. Quantity in liters?\n3. Preferred delivery time?\n\nOr tap on a seller card above to order directly!",
	},
	{
		match: anyOf("rating", "best"),
		reply: "Based on customer reviews and IoT quality scores:\n🥇 Sundar A2 Farms - 4.9★ (Premium A2)\n🥈 Green Valley Farm - 4.8★ (Organic)\n🥉 Krishna Dairy - 4.6★ (Buffalo)\n\nAll maintain temperatures under 5°C for freshness!",
	},
	{
		match: anyOf("delivery"),
		reply: "Delivery is available from all our partner farms! 🚴\n• Standard: Within 2 hours (Free for orders > 5L)\n• Express: Within 1 hour (+₹20)\n• Subscription: Daily delivery at fixed time\n\nOur AI optimizes routes to ensure milk stays fresh!",
	},
}

// ScriptedReply answers a user message from the keyword script. Unknown
// messages get the fallback that echoes the first 50 characters back.
func ScriptedReply(message string) string {
	lower := strings.ToLower(message)

	for _, rule := range scriptRules {
		if rule.match(lower) {
			return rule.reply
		}
	}

	// Truncate on rune boundaries so ₹ and Devanagari text survive intact.
	echo := message
	if runes := []rune(message); len(runes) > 50 {
		echo = string(runes[:50])
	}
	return "I understand you're asking about: \"" + echo + "...\"\n\nI can help you with:\n• Finding nearby milk sellers\n• Price predictions using AI\n• Placing orders\n• Quality & freshness info\n\nWhat would you like to know more about?"
}
