package featureflag

type Flag string

const (
	FlagDisablePackValidation  Flag = "DISABLE_PACK_VALIDATION"
	FlagDisableWatchBroadcast  Flag = "DISABLE_WATCH_BROADCAST"
	FlagDumpTreesOnLoad        Flag = "DUMP_TREES_ON_LOAD"
	FlagDumpPackedMemoryOnLoad Flag = "DUMP_PACKED_MEMORY_ON_LOAD"
)
