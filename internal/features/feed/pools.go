package feed

// Пулы имён. Имена из всех трёх пулов участвуют в розыгрыше наравне.
var cryptoNames = []string{
	"pepe247", "satoshiX", "cryptoKing88", "btcMaster", "ethLord", "dogeWolf", "shibaMoon",
	"adaQueen", "solPrince", "avaxHero", "dotKnight", "linkChain", "uniSwap99", "pancakeFlip",
	"defiGuru", "nftCollector", "metaVerse", "web3Ninja", "blockMiner", "hashPower",
	"cryptoPunk", "bayc_holder", "moonBoy", "diamondHands", "hodlStrong", "toTheMoon",
	"lamboSoon", "rektOrRich", "altCoinKing", "shitCoinLord", "pumpAndDump", "bearMarket",
	"bullRun2024", "cryptoWhale", "satoshiVision", "bitcoinCash", "ethereumMax", "cardanoAda",
	"polkaDot88", "chainLink99", "uniswapV3", "sushiSwap", "compoundFi", "aaveProtocol",
	"makerDao", "yearnFi", "curveDao", "balancerV2", "synthetix", "zeroX_protocol",
	"theGraph88", "fileCoin99", "heliumHnt", "solanaLabs", "avalanche99", "terraLuna",
	"cosmosAtom", "algorandAlgo", "tezosXtz", "vechainVet", "zilliqa99", "ontologyOnt",
}

var gamingNames = []string{
	"plinkoPro", "slotMaster", "rouletteKing", "blackjack21", "pokerFace88", "bingoWinner",
	"scratchCard", "lotteryLuck", "casinoRoyale", "vegasVibes", "monteCarloM", "macauMagic",
	"spinToWin", "jackpotHunter", "luckyNumber7", "goldenSlots", "megaSpin", "bonusRound",
	"freeSpins99", "wildSymbol", "scatterPay", "multiplierX", "progressiveJP", "maxBet",
	"allIn_player", "highRoller", "vipGamer", "elitePlayer", "proGambler", "betMaster",
	"winStreak99", "luckySeven", "fortuneWheel", "treasureHunt", "goldRush88", "diamondMine",
	"emeraldCity", "rubySlots", "sapphireWin", "pearlDiver", "crystalCave", "mysticForest",
	"dragonSlayer", "knightQuest", "wizardSpell", "fairyTale", "pirateGold", "vikingRaid",
	"spartanWar", "romanEmpire", "egyptianGold", "aztecTreasure", "mayaTemple", "incaGold",
	"atlantisLost", "olympusGods", "valhallHero", "norseMyth", "celticMagic", "samuraiCode",
}

var neutralNames = []string{
	"marta_lee", "john_smith", "sarah_jones", "mike_brown", "lisa_wilson", "david_taylor",
	"emma_davis", "chris_miller", "anna_garcia", "james_rodriguez", "maria_martinez",
	"robert_anderson", "jessica_thomas", "michael_jackson", "ashley_white", "matthew_harris",
	"amanda_martin", "daniel_thompson", "stephanie_garcia", "joshua_martinez", "michelle_robinson",
	"andrew_clark", "melissa_rodriguez", "anthony_lewis", "kimberly_lee", "mark_walker",
	"donna_hall", "steven_allen", "carol_young", "paul_hernandez", "sharon_king",
	"kenneth_wright", "sandra_lopez", "joshua_hill", "donna_scott", "brian_green",
	"lisa_adams", "gary_baker", "betty_gonzalez", "donald_nelson", "helen_carter",
	"george_mitchell", "deborah_perez", "frank_roberts", "ruth_turner", "gregory_phillips",
	"catherine_campbell", "raymond_parker", "maria_evans", "jack_edwards", "debra_collins",
}

// DefaultNames — объединённый пул имён.
func DefaultNames() []string {
	names := make([]string, 0, len(cryptoNames)+len(gamingNames)+len(neutralNames))
	names = append(names, cryptoNames...)
	names = append(names, gamingNames...)
	names = append(names, neutralNames...)
	return names
}

// DefaultAvatars — токены аватаров avatar1..avatar16.
func DefaultAvatars() []string {
	return []string{
		"avatar1", "avatar2", "avatar3", "avatar4", "avatar5", "avatar6", "avatar7", "avatar8",
		"avatar9", "avatar10", "avatar11", "avatar12", "avatar13", "avatar14", "avatar15", "avatar16",
	}
}

// DefaultCountries — страны, из которых «выигрывают».
func DefaultCountries() []Country {
	return []Country{
		{Code: "US", Flag: "🇺🇸", Name: "United States"},
		{Code: "CA", Flag: "🇨🇦", Name: "Canada"},
		{Code: "UK", Flag: "🇬🇧", Name: "United Kingdom"},
		{Code: "DE", Flag: "🇩🇪", Name: "Germany"},
		{Code: "FR", Flag: "🇫🇷", Name: "France"},
		{Code: "IT", Flag: "🇮🇹", Name: "Italy"},
		{Code: "ES", Flag: "🇪🇸", Name: "Spain"},
		{Code: "NL", Flag: "🇳🇱", Name: "Netherlands"},
		{Code: "SE", Flag: "🇸🇪", Name: "Sweden"},
		{Code: "NO", Flag: "🇳🇴", Name: "Norway"},
		{Code: "DK", Flag: "🇩🇰", Name: "Denmark"},
		{Code: "FI", Flag: "🇫🇮", Name: "Finland"},
		{Code: "AU", Flag: "🇦🇺", Name: "Australia"},
		{Code: "NZ", Flag: "🇳🇿", Name: "New Zealand"},
		{Code: "JP", Flag: "🇯🇵", Name: "Japan"},
		{Code: "KR", Flag: "🇰🇷", Name: "South Korea"},
		{Code: "SG", Flag: "🇸🇬", Name: "Singapore"},
		{Code: "HK", Flag: "🇭🇰", Name: "Hong Kong"},
		{Code: "BR", Flag: "🇧🇷", Name: "Brazil"},
		{Code: "MX", Flag: "🇲🇽", Name: "Mexico"},
		{Code: "AR", Flag: "🇦🇷", Name: "Argentina"},
		{Code: "CL", Flag: "🇨🇱", Name: "Chile"},
		{Code: "IN", Flag: "🇮🇳", Name: "India"},
		{Code: "TH", Flag: "🇹🇭", Name: "Thailand"},
	}
}
