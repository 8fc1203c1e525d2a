package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"flowerbelle-pos/internal/database"
	"flowerbelle-pos/internal/models"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// RunAgent answers one shop-assistant question, calling back into the
// inventory and sales data through Gemini function calls when needed.
func RunAgent(userMessage string, apiKey string) (string, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return "", err
	}
	defer client.Close()

	model := client.GenerativeModel("gemini-2.0-flash-001")

	today := time.Now().Format("2006-01-02")

	systemPrompt := fmt.Sprintf(`SYSTEM: Today is %s. You are the assistant for a flower shop POS.

RULES:
1. UPDATE: If a user asks to update a product price by NAME (e.g. "Update Rose Bouquet price"), do NOT ask for the ID. Instead:
   - Call 'check_inventory' to find the ID.
   - Call 'update_product_price' using that ID.

2. READ: If a user asks for PRICE, COST, STOCK, or DETAILS of a product:
   - Call 'check_inventory' to get the full list.
   - Read the JSON to find the item and answer the user.

3. SALES: If the user asks about sales, revenue or profit, use 'get_sales_report'.

4. RESTOCK: If the user asks what needs restocking or is running low, use 'low_stock_products'.

USER: %s`, today, userMessage)

	// --- DEFINE TOOLS ---
	model.Tools = []*genai.Tool{
		{
			FunctionDeclarations: []*genai.FunctionDeclaration{
				{
					Name:        "check_inventory",
					Description: "Get the full inventory list. Use this to find ANY product details like ID, Name, SKU, Price, Cost, or Stock.",
				},
				{
					Name:        "update_product_price",
					Description: "Update the selling price of a specific product using its ID",
					Parameters: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"product_id": {Type: genai.TypeInteger, Description: "ID of the product"},
							"new_price":  {Type: genai.TypeNumber, Description: "New selling price"},
						},
						Required: []string{"product_id", "new_price"},
					},
				},
				{
					Name:        "get_sales_report",
					Description: "Get sales totals (revenue, transaction count, profit) for a date range.",
					Parameters: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"start_date": {Type: genai.TypeString, Description: "Start date (YYYY-MM-DD)"},
							"end_date":   {Type: genai.TypeString, Description: "End date (YYYY-MM-DD), inclusive"},
						},
						Required: []string{"start_date", "end_date"},
					},
				},
				{
					Name:        "low_stock_products",
					Description: "List products at or below their reorder level.",
				},
			},
		},
	}

	session := model.StartChat()

	resp, err := session.SendMessage(ctx, genai.Text(systemPrompt))
	if err != nil {
		return "", err
	}

	// --- HANDLE TOOL CALLS ---
	for _, part := range resp.Candidates[0].Content.Parts {
		if funcCall, ok := part.(genai.FunctionCall); ok {

			if funcCall.Name == "check_inventory" {
				finalResp, err := session.SendMessage(ctx, inventorySnapshot())
				if err != nil {
					return "", err
				}
				// The model often chains inventory lookup into a price update
				return handleFollowupCalls(ctx, session, finalResp), nil
			}

			if funcCall.Name == "update_product_price" {
				return executeUpdatePrice(ctx, session, funcCall), nil
			}

			if funcCall.Name == "get_sales_report" {
				return executeSalesReport(ctx, session, funcCall), nil
			}

			if funcCall.Name == "low_stock_products" {
				return executeLowStock(ctx, session), nil
			}
		}
	}

	return printResponse(resp), nil
}

// --- HELPER FUNCTIONS ---

func handleFollowupCalls(ctx context.Context, session *genai.ChatSession, resp *genai.GenerateContentResponse) string {
	for _, part := range resp.Candidates[0].Content.Parts {
		if funcCall, ok := part.(genai.FunctionCall); ok {
			if funcCall.Name == "update_product_price" {
				return executeUpdatePrice(ctx, session, funcCall)
			}
		}
	}
	return printResponse(resp)
}

func inventorySnapshot() genai.FunctionResponse {
	var products []models.Product
	database.DB.Where("is_active = ?", true).Find(&products)

	type SimpleProduct struct {
		ID    uint    `json:"id"`
		Name  string  `json:"name"`
		SKU   string  `json:"sku"`
		Stock int     `json:"stock"`
		Price float64 `json:"price"`
		Cost  float64 `json:"cost"`
	}
	var simpleList []SimpleProduct
	for _, p := range products {
		simpleList = append(simpleList, SimpleProduct{
			ID:    p.ID,
			Name:  p.Name,
			SKU:   p.SKU,
			Stock: p.CurrentStock,
			Price: p.UnitPrice,
			Cost:  p.CostPrice,
		})
	}

	jsonBytes, _ := json.Marshal(simpleList)

	return genai.FunctionResponse{
		Name:     "check_inventory",
		Response: map[string]interface{}{"inventory": string(jsonBytes)},
	}
}

func executeUpdatePrice(ctx context.Context, session *genai.ChatSession, funcCall genai.FunctionCall) string {
	args := funcCall.Args
	productID := int(args["product_id"].(float64))
	newPrice := args["new_price"].(float64)

	if newPrice < 0 {
		return "Error: price cannot be negative."
	}

	result := database.DB.Model(&models.Product{}).Where("id = ?", productID).Update("unit_price", newPrice)

	msg := "Success"
	if result.RowsAffected == 0 {
		msg = "Product ID not found"
	}

	finalResp, _ := session.SendMessage(ctx, genai.FunctionResponse{
		Name:     "update_product_price",
		Response: map[string]interface{}{"status": msg, "new_price": newPrice},
	})
	return printResponse(finalResp)
}

func executeSalesReport(ctx context.Context, session *genai.ChatSession, funcCall genai.FunctionCall) string {
	args := funcCall.Args
	startStr := args["start_date"].(string)
	endStr := args["end_date"].(string)

	start, err1 := time.Parse("2006-01-02", startStr)
	end, err2 := time.Parse("2006-01-02", endStr)

	if err1 != nil || err2 != nil {
		return "Error: Dates must be in YYYY-MM-DD format."
	}
	end = end.AddDate(0, 0, 1) // inclusive end date

	summary, err := database.GetSalesSummary(start, end)
	if err != nil {
		return "Error calculating sales."
	}

	finalResp, _ := session.SendMessage(ctx, genai.FunctionResponse{
		Name: "get_sales_report",
		Response: map[string]interface{}{
			"revenue":     summary.TotalSales,
			"sales_count": summary.TotalTransactions,
			"items_sold":  summary.TotalItemsSold,
			"profit":      summary.TotalProfit,
		},
	})
	return printResponse(finalResp)
}

func executeLowStock(ctx context.Context, session *genai.ChatSession) string {
	var products []models.Product
	database.DB.Where("is_active = ? AND current_stock <= reorder_level", true).Find(&products)

	type LowStockRow struct {
		Name    string `json:"name"`
		SKU     string `json:"sku"`
		Stock   int    `json:"stock"`
		Reorder int    `json:"reorder_level"`
	}
	var rows []LowStockRow
	for _, p := range products {
		rows = append(rows, LowStockRow{Name: p.Name, SKU: p.SKU, Stock: p.CurrentStock, Reorder: p.ReorderLevel})
	}

	jsonBytes, _ := json.Marshal(rows)

	finalResp, _ := session.SendMessage(ctx, genai.FunctionResponse{
		Name:     "low_stock_products",
		Response: map[string]interface{}{"low_stock": string(jsonBytes)},
	})
	return printResponse(finalResp)
}

func printResponse(resp *genai.GenerateContentResponse) string {
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			return string(txt)
		}
	}
	return "I completed the action."
}
