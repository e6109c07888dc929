package services

import (
	"encoding/json"
	"fmt"

	"google.golang.org/genai"

	"finstress/internal/ai"
	"finstress/internal/core"
)

const budgetSystem = `Extract budget details from the user's description into JSON with this structure:
{
  "income": income_value,
  "savings": savings_value,
  "expenses": [
    {"category": "category_name", "allocated_amount": amount, "actual_spent": optional_amount}
  ]
}
Amounts are plain numbers without currency symbols. Omit actual_spent when it is not mentioned.`

const receiptSystem = `Extract product details from the receipt text into JSON with this structure:
{
  "name": "product name here",
  "price": number_here_without_currency_symbol
}
If there are multiple products, name the purchase and provide the total sum of all prices.`

const recommendationReply = `Reply in JSON with this structure:
{
  "recommendations": ["recommendation1", "recommendation2", "recommendation3"]
}`

// recommendationSystems holds one advisor brief per kind. All kinds see the
// same snapshot.
var recommendationSystems = map[core.RecommendationKind]string{
	core.KindGeneral: `Provide financial recommendations based on the user's current month data
and give them budgeting advice. ` + recommendationReply,
	core.KindSavings: `As a financial advisor, analyze the user's financial data and suggest savings
strategies. Compare income, expenses and current_savings against savings_goal over
time_frame_months and give clear steps to reach the goal. ` + recommendationReply,
	core.KindSubscriptions: `As a financial advisor, analyze the user's subscriptions and suggest how to
optimize them. Name the subscriptions to cancel or downgrade, lowest priority first,
so the user can reach their savings goal. ` + recommendationReply,
	core.KindDebts: `As a financial advisor, analyze the user's debts and suggest strategies to pay
them off efficiently, highest priority first, while still working towards the
savings goal. ` + recommendationReply,
}

var (
	moneySchema = &genai.Schema{Type: genai.TypeNumber, Description: "amount in currency units, no symbol"}

	budgetSchema = &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"income":  moneySchema,
			"savings": moneySchema,
			"expenses": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"category":         {Type: genai.TypeString},
						"allocated_amount": moneySchema,
						"actual_spent":     moneySchema,
					},
					Required: []string{"category", "allocated_amount"},
				},
			},
		},
		Required: []string{"income", "savings", "expenses"},
	}

	receiptSchema = &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"name":  {Type: genai.TypeString},
			"price": moneySchema,
		},
		Required: []string{"name", "price"},
	}

	recommendationSchema = &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"recommendations": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		},
		Required: []string{"recommendations"},
	}
)

func budgetPrompt(description string) ai.Prompt {
	return ai.Prompt{System: budgetSystem, User: description}
}

func receiptPrompt(text string) ai.Prompt {
	return ai.Prompt{System: receiptSystem, User: text}
}

// recommendationPrompt embeds the snapshot as JSON. Map keys are emitted in
// sorted order by encoding/json, so equal snapshots give equal prompts.
func recommendationPrompt(s core.FinancialSnapshot, kind core.RecommendationKind) (ai.Prompt, error) {
	system, ok := recommendationSystems[kind]
	if !ok {
		return ai.Prompt{}, fmt.Errorf("no prompt for recommendation kind %q", kind)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return ai.Prompt{}, fmt.Errorf("encode snapshot: %w", err)
	}
	return ai.Prompt{
		System: system,
		User:   "Here is the JSON structure for the data:\n" + string(data),
	}, nil
}
