package engine

const (
	SpaceGo       = "GO"
	SpaceProperty = "PROPERTY"
	SpaceRailroad = "RAILROAD"
	SpaceUtility  = "UTILITY"
	SpaceTax      = "TAX"
	SpaceChance   = "CHANCE"
	SpaceChest    = "CHEST"
	SpaceJail     = "JAIL"
	SpaceGoToJail = "GO_TO_JAIL"
	SpaceFree     = "FREE_PARKING"

	monopolyJailSpace    = 10
	monopolyGoSalary     = 200
	monopolyJailFine     = 50
	monopolyStartMoney   = 1500
	monopolyRailroadRent = 25
)

type MonopolySpace struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Price int    `json:"price,omitempty"`
	Rent  int    `json:"rent,omitempty"`
	Group int    `json:"group,omitempty"`
}

// monopolyBoard is the fixed 40-slot track. Rent on Tax rows is the flat
// deduction; Price on purchasable rows is the buy-in.
var monopolyBoard = [40]MonopolySpace{
	{Name: "Go", Type: SpaceGo},
	{Name: "Igloo Alley", Type: SpaceProperty, Price: 60, Rent: 4, Group: 1},
	{Name: "Community Chest", Type: SpaceChest},
	{Name: "Snowdrift Lane", Type: SpaceProperty, Price: 60, Rent: 8, Group: 1},
	{Name: "Income Tax", Type: SpaceTax, Rent: 200},
	{Name: "North Station", Type: SpaceRailroad, Price: 200},
	{Name: "Harbor Walk", Type: SpaceProperty, Price: 100, Rent: 12, Group: 2},
	{Name: "Chance", Type: SpaceChance},
	{Name: "Lighthouse Road", Type: SpaceProperty, Price: 100, Rent: 12, Group: 2},
	{Name: "Beacon Court", Type: SpaceProperty, Price: 120, Rent: 16, Group: 2},
	{Name: "Jail", Type: SpaceJail},
	{Name: "Plaza North", Type: SpaceProperty, Price: 140, Rent: 20, Group: 3},
	{Name: "Power Plant", Type: SpaceUtility, Price: 150},
	{Name: "Plaza South", Type: SpaceProperty, Price: 140, Rent: 20, Group: 3},
	{Name: "Market Square", Type: SpaceProperty, Price: 160, Rent: 24, Group: 3},
	{Name: "East Station", Type: SpaceRailroad, Price: 200},
	{Name: "Pine Avenue", Type: SpaceProperty, Price: 180, Rent: 28, Group: 4},
	{Name: "Community Chest", Type: SpaceChest},
	{Name: "Cedar Avenue", Type: SpaceProperty, Price: 180, Rent: 28, Group: 4},
	{Name: "Maple Avenue", Type: SpaceProperty, Price: 200, Rent: 32, Group: 4},
	{Name: "Free Parking", Type: SpaceFree},
	{Name: "Summit Drive", Type: SpaceProperty, Price: 220, Rent: 36, Group: 5},
	{Name: "Chance", Type: SpaceChance},
	{Name: "Ridge Road", Type: SpaceProperty, Price: 220, Rent: 36, Group: 5},
	{Name: "Glacier Way", Type: SpaceProperty, Price: 240, Rent: 40, Group: 5},
	{Name: "South Station", Type: SpaceRailroad, Price: 200},
	{Name: "Aurora Street", Type: SpaceProperty, Price: 260, Rent: 44, Group: 6},
	{Name: "Borealis Boulevard", Type: SpaceProperty, Price: 260, Rent: 44, Group: 6},
	{Name: "Water Works", Type: SpaceUtility, Price: 150},
	{Name: "Starlight Strip", Type: SpaceProperty, Price: 280, Rent: 48, Group: 6},
	{Name: "Go To Jail", Type: SpaceGoToJail},
	{Name: "Crystal Court", Type: SpaceProperty, Price: 300, Rent: 52, Group: 7},
	{Name: "Frostbite Row", Type: SpaceProperty, Price: 300, Rent: 52, Group: 7},
	{Name: "Community Chest", Type: SpaceChest},
	{Name: "Avalanche Avenue", Type: SpaceProperty, Price: 320, Rent: 56, Group: 7},
	{Name: "West Station", Type: SpaceRailroad, Price: 200},
	{Name: "Chance", Type: SpaceChance},
	{Name: "Palace Place", Type: SpaceProperty, Price: 350, Rent: 70, Group: 8},
	{Name: "Luxury Tax", Type: SpaceTax, Rent: 100},
	{Name: "Summit Palace", Type: SpaceProperty, Price: 400, Rent: 100, Group: 8},
}

const (
	CardMoney    = "MONEY"
	CardMove     = "MOVE"
	CardGoToJail = "GO_TO_JAIL"
)

type MonopolyCard struct {
	Text   string `json:"text"`
	Kind   string `json:"kind"`
	Amount int    `json:"amount,omitempty"`
	MoveTo int    `json:"moveTo,omitempty"`
}

var monopolyChanceCards = []MonopolyCard{
	{Text: "Advance to Go. Collect $200.", Kind: CardMove, MoveTo: 0},
	{Text: "Take a trip to North Station.", Kind: CardMove, MoveTo: 5},
	{Text: "Advance to Summit Palace.", Kind: CardMove, MoveTo: 39},
	{Text: "Bank pays you a dividend of $50.", Kind: CardMoney, Amount: 50},
	{Text: "Speeding fine. Pay $15.", Kind: CardMoney, Amount: -15},
	{Text: "Your loan matures. Collect $150.", Kind: CardMoney, Amount: 150},
	{Text: "Go directly to Jail.", Kind: CardGoToJail},
	{Text: "Pay school fees of $50.", Kind: CardMoney, Amount: -50},
}

var monopolyChestCards = []MonopolyCard{
	{Text: "Bank error in your favor. Collect $200.", Kind: CardMoney, Amount: 200},
	{Text: "Doctor's fee. Pay $50.", Kind: CardMoney, Amount: -50},
	{Text: "Holiday fund matures. Collect $100.", Kind: CardMoney, Amount: 100},
	{Text: "Advance to Go. Collect $200.", Kind: CardMove, MoveTo: 0},
	{Text: "Hospital fees. Pay $100.", Kind: CardMoney, Amount: -100},
	{Text: "You inherit $100.", Kind: CardMoney, Amount: 100},
	{Text: "Go directly to Jail.", Kind: CardGoToJail},
	{Text: "Income tax refund. Collect $20.", Kind: CardMoney, Amount: 20},
}
