package shopify

import (
	"fmt"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
)

// adminSchema is the slice of the Shopify Admin API schema the app queries
const adminSchema = `
scalar URL
scalar Decimal

type Query {
  inventoryItem(id: ID!): InventoryItem
  productVariant(id: ID!): ProductVariant
  currentAppInstallation: AppInstallation!
}

type Mutation {
  appSubscriptionCreate(
    name: String!
    returnUrl: URL!
    test: Boolean
    trialDays: Int
    lineItems: [AppSubscriptionLineItemInput!]!
  ): AppSubscriptionCreatePayload
}

type InventoryItem {
  id: ID!
  variant: ProductVariant!
}

type ProductVariant {
  id: ID!
  title: String!
  product: Product!
}

type Product {
  id: ID!
  title: String!
}

type AppInstallation {
  activeSubscriptions: [AppSubscription!]!
}

type AppSubscription {
  id: ID!
  name: String!
  status: AppSubscriptionStatus!
}

enum AppSubscriptionStatus { ACCEPTED ACTIVE CANCELLED DECLINED EXPIRED FROZEN PENDING }

type AppSubscriptionCreatePayload {
  appSubscription: AppSubscription
  confirmationUrl: URL
  userErrors: [UserError!]!
}

type UserError {
  field: [String!]
  message: String!
}

input AppSubscriptionLineItemInput {
  plan: AppPlanInput!
}

input AppPlanInput {
  appRecurringPricingDetails: AppRecurringPricingInput
}

input AppRecurringPricingInput {
  price: MoneyInput!
  interval: AppPricingInterval
}

input MoneyInput {
  amount: Decimal!
  currencyCode: CurrencyCode!
}

enum CurrencyCode { USD }

enum AppPricingInterval { ANNUAL EVERY_30_DAYS }
`

const variantForInventoryItemQuery = `
query VariantForInventoryItem($id: ID!) {
  inventoryItem(id: $id) {
    id
    variant {
      id
      title
      product { id title }
    }
  }
}`

const describeVariantQuery = `
query DescribeVariant($id: ID!) {
  productVariant(id: $id) {
    id
    title
    product { id title }
  }
}`

const appSubscriptionCreateMutation = `
mutation AppSubscriptionCreate($name: String!, $returnUrl: URL!, $test: Boolean, $lineItems: [AppSubscriptionLineItemInput!]!) {
  appSubscriptionCreate(name: $name, returnUrl: $returnUrl, test: $test, lineItems: $lineItems) {
    appSubscription { id status }
    confirmationUrl
    userErrors { field message }
  }
}`

const activeSubscriptionsQuery = `
query ActiveSubscriptions {
  currentAppInstallation {
    activeSubscriptions { id name status }
  }
}`

// ValidateQueries parses every outbound document against the schema slice
func ValidateQueries() error {
	schema, err := gqlparser.LoadSchema(&ast.Source{Name: "admin.graphql", Input: adminSchema})
	if err != nil {
		return fmt.Errorf("failed to load admin schema: %w", err)
	}

	docs := map[string]string{
		"VariantForInventoryItem": variantForInventoryItemQuery,
		"DescribeVariant":         describeVariantQuery,
		"AppSubscriptionCreate":   appSubscriptionCreateMutation,
		"ActiveSubscriptions":     activeSubscriptionsQuery,
	}
	for name, doc := range docs {
		if _, errs := gqlparser.LoadQuery(schema, doc); len(errs) > 0 {
			return fmt.Errorf("invalid %s query: %w", name, errs)
		}
	}
	return nil
}
