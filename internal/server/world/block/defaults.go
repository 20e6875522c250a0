package block

// 1.14 default block state ids.
var defaults = []Block{
	{ID: 0, Name: "minecraft:air", DisplayName: "Air", Transparent: true},
	{ID: 1, Name: "minecraft:stone", DisplayName: "Stone", Solid: true},
	{ID: 2, Name: "minecraft:granite", DisplayName: "Granite", Solid: true},
	{ID: 3, Name: "minecraft:polished_granite", DisplayName: "Polished Granite", Solid: true},
	{ID: 4, Name: "minecraft:diorite", DisplayName: "Diorite", Solid: true},
	{ID: 5, Name: "minecraft:polished_diorite", DisplayName: "Polished Diorite", Solid: true},
	{ID: 6, Name: "minecraft:andesite", DisplayName: "Andesite", Solid: true},
	{ID: 7, Name: "minecraft:polished_andesite", DisplayName: "Polished Andesite", Solid: true},
	{ID: 9, Name: "minecraft:grass_block", DisplayName: "Grass Block", Solid: true},
	{ID: 10, Name: "minecraft:dirt", DisplayName: "Dirt", Solid: true},
	{ID: 11, Name: "minecraft:coarse_dirt", DisplayName: "Coarse Dirt", Solid: true},
	{ID: 14, Name: "minecraft:cobblestone", DisplayName: "Cobblestone", Solid: true},
	{ID: 33, Name: "minecraft:bedrock", DisplayName: "Bedrock", Solid: true},
	{ID: 34, Name: "minecraft:water", DisplayName: "Water"},
	{ID: 66, Name: "minecraft:sand", DisplayName: "Sand", Solid: true},
	{ID: 230, Name: "minecraft:glass", DisplayName: "Glass", Solid: true, Transparent: true},
}
