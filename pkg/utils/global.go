package utils

//BackgroundClass is the class id of background boxes
const BackgroundClass = 0

//BallClass is the class id of an object detected as a ball
const BallClass = 1

//PlayerClass is the class id of an object detected as a player
const PlayerClass = 2

//RefereeClass is the class id of an object detected as a referee
const RefereeClass = 3

//DefaultClassNames is the label vocabulary, indexed by class id
var DefaultClassNames = []string{"background", "ball", "player", "referee"}

//MinBoxWidth is the minimum pixel width of a detection that is written to disk
const MinBoxWidth = 10

//MinBoxHeight is the minimum pixel height of a detection that is written to disk
const MinBoxHeight = 10

//DefaultGroundTruthDir holds hand labeled frame files
const DefaultGroundTruthDir = "ground_truth"

//DefaultPredictedDir holds frame files written by the annotation producer
const DefaultPredictedDir = "output_annotations"
