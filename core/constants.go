package core

const (
	DataFileSuffix      = "bk_"
	DataFileExt         = ".data"
	HintFileExt         = ".hint"
	DefaultDataFileName = DataFileSuffix + "0" + DataFileExt
	DefaultHintFileName = DataFileSuffix + "0" + HintFileExt

	dataFileMode = 0644
)
